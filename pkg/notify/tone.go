package notify

import (
	"math"
	"time"
)

// Audible cue parameters: two short sine beeps, the second starting 300ms
// after the first, each fading out exponentially.
const (
	cueFrequency = 800.0
	cueBeepLen   = 200 * time.Millisecond
	cueSpacing   = 300 * time.Millisecond
	cueStartGain = 0.3
	cueEndGain   = 0.01

	// CueSampleRate is the sample rate of the PCM returned by Cue.
	CueSampleRate = 44100
)

// Player renders PCM samples on some audio output.
type Player interface {
	Play(samples []int16, sampleRate int) error
}

// Cue synthesizes the two-tone notification chime as 16-bit mono PCM.
func Cue() []int16 {
	total := cueSpacing + cueBeepLen
	samples := make([]int16, int(total.Seconds()*CueSampleRate))

	beepSamples := int(cueBeepLen.Seconds() * CueSampleRate)
	decay := math.Log(cueEndGain / cueStartGain)

	for i := 0; i < 2; i++ {
		start := int(float64(i) * cueSpacing.Seconds() * CueSampleRate)
		for n := 0; n < beepSamples && start+n < len(samples); n++ {
			t := float64(n) / CueSampleRate
			gain := cueStartGain * math.Exp(decay*t/cueBeepLen.Seconds())
			samples[start+n] = int16(gain * math.Sin(2*math.Pi*cueFrequency*t) * math.MaxInt16)
		}
	}
	return samples
}
