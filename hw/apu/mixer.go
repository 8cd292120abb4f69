package apu

import (
	"slices"

	"github.com/arl/blip"

	"nescore/emu/log"
	"nescore/hw/hwdefs"
)

const (
	MaxSampleRate     = 96000
	DefaultSampleRate = 44100

	// Channel output deltas are accumulated for at most cycleLength cycles
	// before being flushed to blip.
	cycleLength = 10000

	maxSamplesPerBatch = MaxSampleRate * cycleLength / 1600000 * 2
)

// SampleBatch is a block of 16-bit signed, interleaved stereo, samples.
type SampleBatch struct {
	Cycle   int64 // CPU cycle at the end of the batch
	Samples []int16
}

// Mixer mixes the channels outputs and resamples them with blip. Sample
// batches are sent on the output channel and dropped if the consumer is not
// keeping up.
type Mixer struct {
	buf     *blip.Buffer
	prevOut int16

	volumes    [hwdefs.NumAudioChannels]float64
	timestamps []uint32
	chanoutput [hwdefs.NumAudioChannels][cycleLength]int16
	curOutput  [hwdefs.NumAudioChannels]int16

	clockRate  float64
	sampleRate int

	out     chan<- SampleBatch
	dropped int
}

// NewMixer creates a mixer producing samples at sampleRate. If out is nil,
// samples are discarded.
func NewMixer(region hwdefs.Region, sampleRate int, out chan<- SampleBatch) *Mixer {
	if sampleRate <= 0 || sampleRate > MaxSampleRate {
		sampleRate = DefaultSampleRate
	}
	m := &Mixer{
		buf:        blip.NewBuffer(maxSamplesPerBatch),
		clockRate:  region.CPUClockRate(),
		sampleRate: sampleRate,
		out:        out,
	}
	for i := range m.volumes {
		m.volumes[i] = 1.0
	}
	m.Reset()
	return m
}

func (m *Mixer) Reset() {
	m.prevOut = 0
	m.buf.Clear()
	m.buf.SetRates(m.clockRate, float64(m.sampleRate))
	m.timestamps = m.timestamps[:0]

	for i := range m.chanoutput {
		clear(m.chanoutput[i][:])
	}
	clear(m.curOutput[:])
}

// SetVolume sets the volume of a channel, in [0, 1]. Volumes are kept
// across resets.
func (m *Mixer) SetVolume(ch Channel, vol float64) {
	m.volumes[ch] = min(max(vol, 0), 1)
}

// Dropped returns the number of batches dropped so far.
func (m *Mixer) Dropped() int { return m.dropped }

func (m *Mixer) addDelta(ch Channel, time uint32, delta int16) {
	if delta != 0 {
		m.timestamps = append(m.timestamps, time)
		m.chanoutput[ch][time] += delta
	}
}

func (m *Mixer) channelOutput(ch Channel) float64 {
	return float64(m.curOutput[ch]) * m.volumes[ch]
}

// outputVolume approximates the non-linear mixing of the 2A03 DACs.
func (m *Mixer) outputVolume() int16 {
	squareOutput := m.channelOutput(Square1) + m.channelOutput(Square2)
	tndOutput := 2.7516713261*m.channelOutput(Triangle) + 1.8493587125*m.channelOutput(Noise)

	var squareVolume, tndVolume uint16
	if squareOutput > 0 {
		squareVolume = uint16((95.88 * 5000.0) / (8128.0/squareOutput + 100.0))
	}
	if tndOutput > 0 {
		tndVolume = uint16((159.79 * 5000.0) / (22638.0/tndOutput + 100.0))
	}
	return int16(squareVolume + tndVolume)
}

// endFrame feeds blip with the output changes of the time cycles elapsed
// since the last call, then sends the resulting samples.
func (m *Mixer) endFrame(time uint32, cycle int64) {
	slices.Sort(m.timestamps)
	m.timestamps = slices.Compact(m.timestamps)

	for _, stamp := range m.timestamps {
		for j := range hwdefs.NumAudioChannels {
			m.curOutput[j] += m.chanoutput[j][stamp]
		}

		cur := m.outputVolume() * 4
		m.buf.AddDelta(uint64(stamp), int32(cur-m.prevOut))
		m.prevOut = cur
	}
	m.buf.EndFrame(int(time))

	m.timestamps = m.timestamps[:0]
	for i := range m.chanoutput {
		clear(m.chanoutput[i][:])
	}

	samples := make([]int16, maxSamplesPerBatch*2)
	n := m.buf.ReadSamples(samples, maxSamplesPerBatch, blip.Stereo)
	if m.out == nil || n == 0 {
		return
	}

	// Mono source, copy the left channel to the right one.
	samples = samples[:n*2]
	for i := 0; i < len(samples); i += 2 {
		samples[i+1] = samples[i]
	}

	select {
	case m.out <- SampleBatch{Cycle: cycle, Samples: samples}:
	default:
		m.dropped++
		log.ModSound.DebugZ("audio queue full, dropping samples").
			Int("samples", n).
			Int("dropped", m.dropped).
			End()
	}
}
