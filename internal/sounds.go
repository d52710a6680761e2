package internal

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

const (
	defaultInstrument = "piano"
	defaultSoundExt   = "mp3"

	lowestNote  = 48
	highestNote = 84
)

var knownInstruments = map[string]bool{
	"piano":      true,
	"guitar":     true,
	"cello":      true,
	"flute":      true,
	"clarinet":   true,
	"trumpet":    true,
	"vibraphone": true,
	"bass":       true,
	"marimba":    true,
	"synth":      true,
}

var instrumentAliases = map[string]string{
	"strings": "cello",
}

// NormalizeInstrument folds case, drops whitespace and resolves legacy aliases.
func NormalizeInstrument(name string) string {
	n := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, name)
	if alias, ok := instrumentAliases[n]; ok {
		return alias
	}
	return n
}

// ExpandInstrument returns one sample file per semitone of the instrument's
// range. Unknown instruments and instruments already present in expanded
// yield nothing. expanded is updated on success.
func ExpandInstrument(name string, expanded map[string]bool) []string {
	inst := NormalizeInstrument(name)
	if !knownInstruments[inst] || expanded[inst] {
		return nil
	}
	expanded[inst] = true
	files := make([]string, 0, highestNote-lowestNote+1)
	for n := lowestNote; n <= highestNote; n++ {
		files = append(files, fmt.Sprintf("%s/%d.wav", inst, n))
	}
	return files
}

type SoundSet map[string]struct{}

func (s SoundSet) Add(name string) {
	s[name] = struct{}{}
}

func (s SoundSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s SoundSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type soundWalker struct {
	sounds   SoundSet
	expanded map[string]bool
}

// CollectSounds returns every sound file the project can play, including the
// note samples of each instrument it uses.
func CollectSounds(p *Project) SoundSet {
	w := &soundWalker{
		sounds:   SoundSet{},
		expanded: map[string]bool{},
	}
	for _, ability := range p.Abilities {
		if ability == nil {
			continue
		}
		for _, block := range ability.Blocks {
			if block == nil {
				continue
			}
			w.walk(block.Parameters)
		}
	}
	for _, rules := range [][]*Rule{p.Rules, p.CustomRuleInstances} {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			w.walk(rule.Parameters)
		}
	}
	return w.sounds
}

func (w *soundWalker) walk(params []*Parameter) {
	for _, param := range params {
		if param == nil {
			continue
		}
		switch param.Type {
		case ParamSound:
			if param.Value != "" {
				w.sounds.Add(param.Value)
			}
		case ParamMusicNote:
			w.addAll(ExpandInstrument(defaultInstrument, w.expanded))
		case ParamInstrument:
			w.addAll(ExpandInstrument(param.Value, w.expanded))
		}
		w.walk(param.Children())
	}
}

func (w *soundWalker) addAll(names []string) {
	for _, n := range names {
		w.sounds.Add(n)
	}
}

// SoundFilename applies the default extension to bare sound names.
func SoundFilename(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + "." + defaultSoundExt
}
