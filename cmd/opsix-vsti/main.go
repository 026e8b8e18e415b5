//go:build plugin

package main

import (
	"log/slog"
	"sync/atomic"

	"github.com/opsix/opsix"
	"github.com/opsix/opsix/control"
	"github.com/opsix/opsix/control/gomidi"
	"github.com/opsix/opsix/fm"
	"github.com/opsix/opsix/preset"
	"gitlab.com/gomidi/midi/v2"
	"pipelined.dev/audio/vst2"
)

const (
	pluginName    = "opsix"
	pluginVersion = int32(100)
)

var pluginID = [4]byte{'O', 'p', 's', '6'}

// patchSource remembers the last patch it handed out, so that the host can
// save it with the project.
type patchSource struct {
	bank    *preset.Bank
	current atomic.Pointer[opsix.Patch]
}

func (s *patchSource) Patch(program int) (*opsix.Patch, error) {
	p, err := s.bank.Patch(program)
	if err == nil {
		s.current.Store(p)
	}
	return p, err
}

// processContext runs on the audio thread: it is the only goroutine
// enqueueing commands into the engine.
type processContext struct {
	engine     *fm.Engine
	translator control.Translator
	patches    *patchSource
	// pending is a patch restored by the host on another thread, waiting
	// to be loaded on the audio thread.
	pending atomic.Pointer[opsix.Patch]
	cmds    []opsix.Command
	buf     opsix.AudioBuffer
	logger  *slog.Logger
}

func (c *processContext) event(ev *vst2.MIDIEvent) {
	e, ok := gomidi.Decode(midi.Message(ev.Data[:]))
	if !ok {
		return
	}
	var err error
	c.cmds, err = c.translator.Translate(e, c.cmds[:0])
	if err != nil {
		c.logger.Warn("could not translate event", "event", e, "err", err)
	}
	c.enqueue()
}

func (c *processContext) loadPending() {
	p := c.pending.Swap(nil)
	if p == nil {
		return
	}
	var err error
	if c.cmds, err = p.Commands(c.cmds[:0]); err != nil {
		c.logger.Warn("could not load patch", "patch", p.Name, "err", err)
		return
	}
	c.patches.current.Store(p)
	c.enqueue()
}

func (c *processContext) enqueue() {
	for _, cmd := range c.cmds {
		c.engine.Enqueue(cmd)
	}
	clear(c.cmds)
}

func (c *processContext) process(out vst2.FloatBuffer, sampleRate int) {
	defer func() {
		if r := recover(); r != nil {
			c.buf.Clear()
			c.logger.Error("engine panicked, output muted for this block", "panic", r)
		}
	}()
	if len(c.buf) < out.Frames {
		c.buf = append(c.buf, make(opsix.AudioBuffer, out.Frames-len(c.buf))...)
	}
	c.buf = c.buf[:out.Frames]
	c.loadPending()
	c.engine.Process(c.buf, sampleRate)
}

func init() {
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		logger := slog.Default()
		bank, err := preset.Default()
		if err != nil {
			logger.Error("could not load presets", "err", err)
			bank = &preset.Bank{}
		}
		engine, err := fm.NewEngine(44100)
		if err != nil {
			panic(err)
		}
		patches := &patchSource{bank: bank}
		context := &processContext{
			engine:     engine,
			translator: control.Translator{Channel: control.OmniChannel, Patches: patches},
			patches:    patches,
			cmds:       make([]opsix.Command, 0, 256),
			buf:        make(opsix.AudioBuffer, 1024),
			logger:     logger,
		}
		if p, err := patches.Patch(0); err == nil {
			context.pending.Store(p)
		}
		return vst2.Plugin{
				UniqueID:       pluginID,
				Version:        pluginVersion,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           pluginName,
				Vendor:         "opsix",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					sampleRate := engine.SampleRate()
					if info := h.GetTimeInfo(0); info != nil && info.SampleRate > 0 {
						sampleRate = int(info.SampleRate)
					}
					context.process(out, sampleRate)
					left := out.Channel(0)
					right := out.Channel(1)
					for i := 0; i < out.Frames; i++ {
						left[i], right[i] = context.buf[i][0], context.buf[i][1]
					}
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						if v, ok := ev.Event(i).(*vst2.MIDIEvent); ok {
							context.event(v)
						}
					}
				},
				GetChunkFunc: func(isPreset bool) []byte {
					p := patches.current.Load()
					if p == nil {
						return nil
					}
					data, err := preset.Marshal(p)
					if err != nil {
						logger.Error("could not save patch", "err", err)
						return nil
					}
					return data
				},
				SetChunkFunc: func(data []byte, isPreset bool) {
					p, err := preset.Parse(data)
					if err != nil {
						logger.Error("could not restore patch", "err", err)
						return
					}
					context.pending.Store(&p)
				},
			}
	}
}

func main() {}
