package internal

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ParamType is the numeric parameter tag used in project documents.
type ParamType int

const (
	ParamSound      ParamType = 51
	ParamMusicNote  ParamType = 61
	ParamInstrument ParamType = 62
)

const (
	defaultTitle         = "Untitled"
	defaultAuthor        = "Unknown Author"
	defaultPlayerVersion = "1.0.0"
	defaultStageWidth    = 1024
	defaultStageHeight   = 768
)

type Datum struct {
	Params []*Parameter `json:"params"`
}

type Parameter struct {
	Type  ParamType `json:"type"`
	Value string    `json:"value"`
	Datum *Datum    `json:"datum,omitempty"`
}

// UnmarshalJSON reads a parameter leniently. Only string values are kept;
// other value shapes belong to parameter types nothing here looks at.
func (p *Parameter) UnmarshalJSON(data []byte) error {
	doc := gjson.ParseBytes(data)
	p.Type = ParamType(doc.Get("type").Int())
	p.Value = ""
	if v := doc.Get("value"); v.Type == gjson.String {
		p.Value = v.String()
	}
	p.Datum = nil
	if d := doc.Get("datum"); d.IsObject() {
		p.Datum = &Datum{}
		if params := d.Get("params"); params.IsArray() {
			if err := json.Unmarshal([]byte(params.Raw), &p.Datum.Params); err != nil {
				return err
			}
		}
	}
	return nil
}

// Children returns the nested parameters, if any.
func (p *Parameter) Children() []*Parameter {
	if p.Datum == nil {
		return nil
	}
	return p.Datum.Params
}

type Block struct {
	Parameters []*Parameter `json:"parameters"`
}

type Ability struct {
	Blocks []*Block `json:"blocks"`
}

type Rule struct {
	Parameters []*Parameter `json:"parameters"`
}

type StageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Project struct {
	Abilities           []*Ability `json:"abilities"`
	Rules               []*Rule    `json:"rules"`
	CustomRuleInstances []*Rule    `json:"customRuleInstances"`

	// Raw is the document as fetched. It is written to the bundle verbatim.
	Raw []byte `json:"-"`
}

// ParseProject decodes the parameter forest and keeps the raw document for
// the scalar fields, which vary in name between API versions.
func ParseProject(data []byte) (*Project, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("project document is not valid json")
	}
	p := &Project{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	p.Raw = data
	return p, nil
}

func (p *Project) Title() string {
	if t := gjson.GetBytes(p.Raw, "title").String(); t != "" {
		return t
	}
	return defaultTitle
}

func (p *Project) Author() string {
	for _, key := range []string{"user.nickname", "author"} {
		if a := gjson.GetBytes(p.Raw, key).String(); a != "" {
			return a
		}
	}
	return defaultAuthor
}

func (p *Project) PlayerVersion() string {
	if v := gjson.GetBytes(p.Raw, "playerVersion").String(); v != "" {
		return v
	}
	return defaultPlayerVersion
}

func (p *Project) StageSize() StageSize {
	size := StageSize{
		Width:  int(gjson.GetBytes(p.Raw, "stageSize.width").Int()),
		Height: int(gjson.GetBytes(p.Raw, "stageSize.height").Int()),
	}
	if size.Width <= 0 || size.Height <= 0 {
		return StageSize{Width: defaultStageWidth, Height: defaultStageHeight}
	}
	return size
}

// RemoteAssets lists the image filenames the project references.
func (p *Project) RemoteAssets() []string {
	res := gjson.GetBytes(p.Raw, "remote_asset_urls")
	if !res.Exists() {
		res = gjson.GetBytes(p.Raw, "remoteAssetUrls")
	}
	var names []string
	for _, r := range res.Array() {
		if s := r.String(); s != "" {
			names = append(names, s)
		}
	}
	return names
}
