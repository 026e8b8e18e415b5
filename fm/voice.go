package fm

import (
	"github.com/opsix/opsix"
)

// stealFadeSeconds is how long a stolen voice fades out before it starts
// its new note.
const stealFadeSeconds = 0.002

type (
	// Voice is one sounding note: six operators and the pitch glide.
	Voice struct {
		Note     int
		Velocity int
		// Stamp is the allocation order of the voice; a larger stamp is a
		// more recent note.
		Stamp uint64
		State opsix.VoiceState

		ops   [opsix.NumOperators]Operator
		glide Glide

		sustained bool // note off arrived while the sustain pedal was down

		// a stolen voice fades out the old note before starting Note
		stealing bool
		fade     float64
		fadeStep float64

		energy float64 // sum of squared output since the last snapshot
		frames int
	}

	// VoiceManager allocates the voices of the engine. In Poly mode every
	// note gets its own voice, stealing the oldest one when all are in use.
	// In Mono mode only the first voice is used and the held notes are kept
	// on a stack, so releasing a note returns to the previous one.
	VoiceManager struct {
		voices [opsix.MaxVoices]Voice
		params *[opsix.NumOperators]opsix.OperatorParams

		mode         opsix.Mode
		sustain      bool
		portamento   bool
		glideSeconds float64
		sampleRate   float64
		stamp        uint64

		held    [128]int
		numHeld int
	}
)

func newVoiceManager(params *[opsix.NumOperators]opsix.OperatorParams, sampleRate float64) VoiceManager {
	m := VoiceManager{params: params, sampleRate: sampleRate, glideSeconds: PortamentoSeconds(50)}
	for i := range m.voices {
		m.voices[i].reset()
	}
	return m
}

func (v *Voice) reset() {
	for i := range v.ops {
		v.ops[i].env.reset()
		v.ops[i].prev = 0
	}
	v.State = opsix.Idle
	v.sustained = false
	v.stealing = false
	v.fade = 1
}

// Allocate starts a note and returns the index of the voice playing it.
func (m *VoiceManager) Allocate(note, velocity int) int {
	m.stamp++
	if m.mode == opsix.Mono {
		return m.allocateMono(note, velocity)
	}
	i := m.pick()
	v := &m.voices[i]
	if v.State == opsix.Idle {
		m.start(v, note, velocity)
	} else {
		// the old note fades out in the slot, then start is called
		v.stealing = true
		v.fadeStep = 1 / max(stealFadeSeconds*m.sampleRate, 1)
		v.Note, v.Velocity = note, velocity
		for j := range v.ops {
			v.ops[j].fastRelease(m.sampleRate)
		}
	}
	v.Stamp = m.stamp
	v.State = opsix.Active
	v.sustained = false
	return i
}

// pick chooses the voice for a new note: an idle voice, or else the oldest
// releasing voice, or else the oldest active voice.
func (m *VoiceManager) pick() int {
	oldestReleasing, oldestActive := -1, -1
	for i := range m.voices {
		v := &m.voices[i]
		switch v.State {
		case opsix.Idle:
			return i
		case opsix.Releasing:
			if oldestReleasing < 0 || v.Stamp < m.voices[oldestReleasing].Stamp {
				oldestReleasing = i
			}
		default:
			if oldestActive < 0 || v.Stamp < m.voices[oldestActive].Stamp {
				oldestActive = i
			}
		}
	}
	if oldestReleasing >= 0 {
		return oldestReleasing
	}
	return oldestActive
}

func (m *VoiceManager) start(v *Voice, note, velocity int) {
	v.Note, v.Velocity = note, velocity
	v.stealing = false
	v.fade = 1
	v.glide.Jump(NoteFrequency(float64(note)))
	for i := range v.ops {
		v.ops[i].trigger(&m.params[i], note, velocity, m.sampleRate, true)
	}
}

func (m *VoiceManager) allocateMono(note, velocity int) int {
	m.push(note)
	v := &m.voices[0]
	if v.State == opsix.Idle || v.stealing {
		m.start(v, note, velocity)
	} else {
		v.Note, v.Velocity = note, velocity
		m.glideTo(v, note)
		for i := range v.ops {
			v.ops[i].trigger(&m.params[i], note, velocity, m.sampleRate, false)
		}
	}
	v.Stamp = m.stamp
	v.State = opsix.Active
	v.sustained = false
	return 0
}

func (m *VoiceManager) glideTo(v *Voice, note int) {
	f := NoteFrequency(float64(note))
	if m.mode == opsix.Mono && m.portamento {
		v.glide.To(f, m.glideSeconds, m.sampleRate)
	} else {
		v.glide.Jump(f)
	}
}

// Release ends a note. While the sustain pedal is down the voice keeps
// sounding until the pedal is released.
func (m *VoiceManager) Release(note int) {
	if m.mode == opsix.Mono {
		m.releaseMono(note)
		return
	}
	for i := range m.voices {
		v := &m.voices[i]
		if v.State != opsix.Active || v.Note != note || v.sustained {
			continue
		}
		if m.sustain {
			v.sustained = true
			continue
		}
		m.release(v)
	}
}

func (m *VoiceManager) releaseMono(note int) {
	top := m.numHeld > 0 && m.held[m.numHeld-1] == note
	m.remove(note)
	v := &m.voices[0]
	if v.State != opsix.Active || !top {
		return
	}
	if m.numHeld > 0 {
		// return to the most recently held note that is still down
		v.Note = m.held[m.numHeld-1]
		m.glideTo(v, v.Note)
		for i := range v.ops {
			v.ops[i].update(&m.params[i], v.Note, v.Velocity, m.sampleRate)
		}
		return
	}
	if m.sustain {
		v.sustained = true
		return
	}
	m.release(v)
}

func (m *VoiceManager) release(v *Voice) {
	v.State = opsix.Releasing
	v.sustained = false
	if v.stealing {
		// the new note never started; let the old one finish its fast fade
		v.stealing = false
		return
	}
	for i := range v.ops {
		v.ops[i].release()
	}
}

// SetSustain sets the sustain pedal. Releasing the pedal releases all notes
// whose keys are already up.
func (m *VoiceManager) SetSustain(on bool) {
	m.sustain = on
	if on {
		return
	}
	for i := range m.voices {
		if v := &m.voices[i]; v.sustained && v.State == opsix.Active {
			m.release(v)
		}
	}
}

// AllNotesOff fades every voice out quickly and forgets all held and
// sustained notes. Calling it again has no further effect.
func (m *VoiceManager) AllNotesOff() {
	m.numHeld = 0
	for i := range m.voices {
		v := &m.voices[i]
		if v.State == opsix.Idle {
			continue
		}
		v.State = opsix.Releasing
		v.sustained = false
		v.stealing = false
		for j := range v.ops {
			v.ops[j].fastRelease(m.sampleRate)
		}
	}
}

// SetMode switches between Poly and Mono. Sounding notes are faded out.
func (m *VoiceManager) SetMode(mode opsix.Mode) {
	if mode == m.mode {
		return
	}
	m.AllNotesOff()
	m.mode = mode
}

func (m *VoiceManager) SetPortamento(enabled bool, seconds float64) {
	m.portamento = enabled
	m.glideSeconds = seconds
}

// UpdateOperator applies changed parameters of operator op to all sounding
// voices.
func (m *VoiceManager) UpdateOperator(op int) {
	for i := range m.voices {
		v := &m.voices[i]
		if v.State == opsix.Idle {
			continue
		}
		v.ops[op].update(&m.params[op], v.Note, v.Velocity, m.sampleRate)
	}
}

func (m *VoiceManager) setSampleRate(sampleRate float64) {
	factor := sampleRate / m.sampleRate
	m.sampleRate = sampleRate
	for i := range m.voices {
		v := &m.voices[i]
		v.glide.Rescale(factor)
		v.fadeStep /= factor
	}
	for op := range m.params {
		m.UpdateOperator(op)
	}
}

// ActiveCount returns the number of voices in the Active state.
func (m *VoiceManager) ActiveCount() int {
	n := 0
	for i := range m.voices {
		if m.voices[i].State == opsix.Active {
			n++
		}
	}
	return n
}

// Voice returns the voice with the given index.
func (m *VoiceManager) Voice(i int) *Voice {
	return &m.voices[i]
}

// render writes the output of voice v into out. pitch is the frequency
// multiplier and amp the carrier amplitude for each sample.
func (m *VoiceManager) render(v *Voice, out []float32, pitch, amp []float64, r *routing) {
	invSR := 1 / m.sampleRate
	for i := range out {
		if v.stealing {
			v.fade -= v.fadeStep
			if v.fade <= 0 {
				m.start(v, v.Note, v.Velocity)
			}
		}
		inc := v.glide.Next() * pitch[i] * invSR
		out[i] = float32(r.process(&v.ops, inc, amp[i]) * v.fade)
	}
	if v.State == opsix.Releasing && !r.sounding(&v.ops) {
		v.reset()
	}
}

func (m *VoiceManager) push(note int) {
	m.remove(note)
	if m.numHeld == len(m.held) {
		copy(m.held[:], m.held[1:])
		m.numHeld--
	}
	m.held[m.numHeld] = note
	m.numHeld++
}

func (m *VoiceManager) remove(note int) {
	for i := 0; i < m.numHeld; i++ {
		if m.held[i] == note {
			copy(m.held[i:], m.held[i+1:m.numHeld])
			m.numHeld--
			return
		}
	}
}
