package subsynth

import (
	"fmt"
	"sort"

	"github.com/cbegin/subsynth-go/internal/mod"
	"github.com/cbegin/subsynth-go/internal/osc"
	"github.com/cbegin/subsynth-go/internal/patch"
	"github.com/cbegin/subsynth-go/internal/voice"
)

// paramDef binds a symbolic name to a per-voice setter and getter. Master
// parameters fan out to every voice in the pool; the getter reads the first
// voice, which the fan-out keeps representative.
type paramDef struct {
	set func(*voice.Voice, float64)
	get func(*voice.Voice) float64
}

var paramRegistry = map[string]paramDef{
	"cutoff": {
		set: func(v *voice.Voice, x float64) { v.SetBaseCutoff(x) },
		get: func(v *voice.Voice) float64 { return v.BaseCutoff() },
	},
	"resonance": {
		set: func(v *voice.Voice, x float64) { v.SetBaseResonance(x) },
		get: func(v *voice.Voice) float64 { return v.BaseResonance() },
	},
	"amplitude": {
		set: func(v *voice.Voice, x float64) { v.SetBaseAmplitude(x) },
		get: func(v *voice.Voice) float64 { return v.BaseAmplitude() },
	},
	"saw_gain": {
		set: func(v *voice.Voice, x float64) { v.SetGain(voice.ChanSaw, x) },
		get: func(v *voice.Voice) float64 { return v.Gain(voice.ChanSaw) },
	},
	"pulse_gain": {
		set: func(v *voice.Voice, x float64) { v.SetGain(voice.ChanPulse, x) },
		get: func(v *voice.Voice) float64 { return v.Gain(voice.ChanPulse) },
	},
	"sub_gain": {
		set: func(v *voice.Voice, x float64) { v.SetGain(voice.ChanSub, x) },
		get: func(v *voice.Voice) float64 { return v.Gain(voice.ChanSub) },
	},
	"noise_gain": {
		set: func(v *voice.Voice, x float64) { v.SetGain(voice.ChanNoise, x) },
		get: func(v *voice.Voice) float64 { return v.Gain(voice.ChanNoise) },
	},
	"wavetable_gain": {
		set: func(v *voice.Voice, x float64) { v.SetGain(voice.ChanWavetable, x) },
		get: func(v *voice.Voice) float64 { return v.Gain(voice.ChanWavetable) },
	},
	"wavetable_shape": {
		set: func(v *voice.Voice, x float64) { v.Wavetable().SetShape(osc.Shape(int(x))) },
		get: func(v *voice.Voice) float64 { return float64(v.Wavetable().Shape()) },
	},
	"pulse_width": {
		set: func(v *voice.Voice, x float64) { v.VCO().SetPulseWidth(x) },
		get: func(v *voice.Voice) float64 { return v.VCO().PulseWidth() },
	},
	"attack": {
		set: func(v *voice.Voice, x float64) { v.Envelope().SetAttack(x) },
		get: func(v *voice.Voice) float64 { return v.Envelope().Attack() },
	},
	"decay": {
		set: func(v *voice.Voice, x float64) { v.Envelope().SetDecay(x) },
		get: func(v *voice.Voice) float64 { return v.Envelope().Decay() },
	},
	"sustain": {
		set: func(v *voice.Voice, x float64) { v.Envelope().SetSustain(x) },
		get: func(v *voice.Voice) float64 { return v.Envelope().Sustain() },
	},
	"release": {
		set: func(v *voice.Voice, x float64) { v.Envelope().SetRelease(x) },
		get: func(v *voice.Voice) float64 { return v.Envelope().Release() },
	},
	"lfo_rate": {
		set: func(v *voice.Voice, x float64) { v.LFO().SetFrequency(x) },
		get: func(v *voice.Voice) float64 { return v.LFO().Frequency() },
	},
	"lfo_depth": {
		set: func(v *voice.Voice, x float64) { v.LFO().SetIntensity(x) },
		get: func(v *voice.Voice) float64 { return v.LFO().Intensity() },
	},
	"lfo_waveform": {
		set: func(v *voice.Voice, x float64) { v.LFO().SetWaveform(int(x)) },
		get: func(v *voice.Voice) float64 { return float64(v.LFO().Waveform()) },
	},
}

// ParamNames returns every symbolic parameter name, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(paramRegistry))
	for name := range paramRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetParam sets a master-voice parameter by symbolic name, fanning the
// value out to the whole pool. Out-of-range values are clamped by the
// underlying setter; an unknown name returns an error with no state change.
func (e *Engine) SetParam(name string, value float64) error {
	def, ok := paramRegistry[name]
	if !ok {
		return fmt.Errorf("subsynth: unknown parameter %q", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.ForEachVoice(func(v *voice.Voice) { def.set(v, value) })
	return nil
}

// Param reads a master-voice parameter by symbolic name.
func (e *Engine) Param(name string) (float64, error) {
	def, ok := paramRegistry[name]
	if !ok {
		return 0, fmt.Errorf("subsynth: unknown parameter %q", name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return def.get(e.vm.VoiceAt(0)), nil
}

// SetADSR sets all four envelope parameters at once. Times clamp to a 1 ms
// floor, sustain to [0, 1].
func (e *Engine) SetADSR(attack, decay, sustain, release float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.ForEachVoice(func(v *voice.Voice) {
		env := v.Envelope()
		env.SetAttack(attack)
		env.SetDecay(decay)
		env.SetSustain(sustain)
		env.SetRelease(release)
	})
}

// MarshalPatch captures the current parameter set and modulation routes as
// a deterministic JSON document.
func (e *Engine) MarshalPatch(name string) ([]byte, error) {
	e.mu.Lock()
	d := patch.New(name)
	captured := e.vm.VoiceAt(0)
	for pname, def := range paramRegistry {
		d.Parameters[pname] = def.get(captured)
	}
	for _, c := range captured.Matrix().Connections() {
		d.Modulations = append(d.Modulations, patch.Connection{
			Source:    int(c.Source),
			Target:    int(c.Target),
			Intensity: c.Intensity,
		})
	}
	e.mu.Unlock()
	return patch.Marshal(d)
}

// ApplyPatch restores a patch produced by MarshalPatch. The document is
// validated before anything is applied, so a bad patch leaves the engine
// unchanged.
func (e *Engine) ApplyPatch(data []byte) error {
	d, err := patch.Unmarshal(data)
	if err != nil {
		return err
	}
	for name := range d.Parameters {
		if _, ok := paramRegistry[name]; !ok {
			return fmt.Errorf("subsynth: patch has unknown parameter %q", name)
		}
	}
	for _, c := range d.Modulations {
		if c.Source < 0 || c.Source >= int(mod.NumSources) {
			return fmt.Errorf("subsynth: patch has invalid modulation source %d", c.Source)
		}
		if c.Target < 0 || c.Target >= int(mod.NumTargets) {
			return fmt.Errorf("subsynth: patch has invalid modulation target %d", c.Target)
		}
	}

	// Apply parameters in sorted order so repeated loads behave identically.
	names := make([]string, 0, len(d.Parameters))
	for name := range d.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, name := range names {
		def := paramRegistry[name]
		value := d.Parameters[name]
		e.vm.ForEachVoice(func(v *voice.Voice) { def.set(v, value) })
	}
	e.vm.ForEachVoice(func(v *voice.Voice) {
		m := v.Matrix()
		m.ClearAll()
		for _, c := range d.Modulations {
			m.Set(mod.Source(c.Source), mod.Target(c.Target), c.Intensity)
		}
	})
	return nil
}

// SavePatch writes the current state to a patch file.
func (e *Engine) SavePatch(path, name string) error {
	data, err := e.MarshalPatch(name)
	if err != nil {
		return err
	}
	d, err := patch.Unmarshal(data)
	if err != nil {
		return err
	}
	return patch.Save(d, path)
}

// LoadPatch restores engine state from a patch file.
func (e *Engine) LoadPatch(path string) error {
	d, err := patch.Load(path)
	if err != nil {
		return err
	}
	data, err := patch.Marshal(d)
	if err != nil {
		return err
	}
	return e.ApplyPatch(data)
}
