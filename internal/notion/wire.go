package notion

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/notioncms/internal/content"
)

// Wire shapes of the API. Only the fields this module reads are declared.

type wireAnnotations struct {
	Bold          bool   `json:"bold"`
	Italic        bool   `json:"italic"`
	Strikethrough bool   `json:"strikethrough"`
	Underline     bool   `json:"underline"`
	Code          bool   `json:"code"`
	Color         string `json:"color"`
}

type wireRichText struct {
	Type        string          `json:"type"`
	PlainText   string          `json:"plain_text"`
	Href        *string         `json:"href"`
	Annotations wireAnnotations `json:"annotations"`
}

type wireURL struct {
	URL string `json:"url"`
}

type wireFile struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	File     *wireURL `json:"file"`
	External *wireURL `json:"external"`
}

type wireProperty struct {
	Type     string         `json:"type"`
	Title    []wireRichText `json:"title"`
	RichText []wireRichText `json:"rich_text"`
	Select   *struct {
		Name string `json:"name"`
	} `json:"select"`
	Number *float64 `json:"number"`
	Date   *struct {
		Start string  `json:"start"`
		End   *string `json:"end"`
	} `json:"date"`
	URL      *string    `json:"url"`
	Files    []wireFile `json:"files"`
	Checkbox bool       `json:"checkbox"`
}

type wirePage struct {
	ID             string                  `json:"id"`
	URL            string                  `json:"url"`
	CreatedTime    string                  `json:"created_time"`
	LastEditedTime string                  `json:"last_edited_time"`
	Properties     map[string]wireProperty `json:"properties"`
}

// wireBlockHeader is the type-independent part of a block.
type wireBlockHeader struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	HasChildren bool   `json:"has_children"`
}

// wireBlockPayload covers the payload keyed by the block's type for every
// supported type.
type wireBlockPayload struct {
	RichText []wireRichText `json:"rich_text"`
	Icon     *struct {
		Type  string `json:"type"`
		Emoji string `json:"emoji"`
	} `json:"icon"`
	Language string         `json:"language"`
	Type     string         `json:"type"`
	File     *wireURL       `json:"file"`
	External *wireURL       `json:"external"`
	Caption  []wireRichText `json:"caption"`
}

type wireList struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

type wireDatabase struct {
	ID          string `json:"id"`
	DataSources []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data_sources"`
}

func toSpans(in []wireRichText) []content.Span {
	if len(in) == 0 {
		return nil
	}
	out := make([]content.Span, len(in))
	for i, rt := range in {
		out[i] = content.Span{
			Text: rt.PlainText,
			Annotations: content.Annotations{
				Bold:          rt.Annotations.Bold,
				Italic:        rt.Annotations.Italic,
				Strikethrough: rt.Annotations.Strikethrough,
				Underline:     rt.Annotations.Underline,
				Code:          rt.Annotations.Code,
				Color:         rt.Annotations.Color,
			},
		}
		if rt.Href != nil {
			out[i].Href = *rt.Href
		}
	}
	return out
}

func toProperty(p wireProperty) content.Property {
	switch content.Kind(p.Type) {
	case content.KindTitle:
		return content.Title{Spans: toSpans(p.Title)}
	case content.KindRichText:
		return content.RichText{Spans: toSpans(p.RichText)}
	case content.KindSelect:
		if p.Select == nil {
			return content.Select{}
		}
		return content.Select{Name: p.Select.Name, Set: true}
	case content.KindNumber:
		if p.Number == nil {
			return content.Number{}
		}
		return content.Number{Value: *p.Number, Set: true}
	case content.KindDate:
		if p.Date == nil {
			return content.Date{}
		}
		d := content.Date{Start: p.Date.Start, Set: true}
		if p.Date.End != nil {
			d.End = *p.Date.End
		}
		return d
	case content.KindURL:
		if p.URL == nil {
			return content.URL{}
		}
		return content.URL{Value: *p.URL, Set: true}
	case content.KindFiles:
		files := make([]content.File, 0, len(p.Files))
		for _, f := range p.Files {
			u, external := fileURL(f.Type, f.File, f.External)
			files = append(files, content.File{Name: f.Name, URL: u, External: external})
		}
		return content.Files{Files: files}
	case content.KindCheckbox:
		return content.Checkbox{Checked: p.Checkbox}
	}
	return content.Unsupported{Type: p.Type}
}

// fileURL picks the hosted or external URL of a file object.
func fileURL(typ string, file, external *wireURL) (string, bool) {
	if typ == "external" && external != nil {
		return external.URL, true
	}
	if file != nil {
		return file.URL, false
	}
	if external != nil {
		return external.URL, true
	}
	return "", false
}

func toPage(raw json.RawMessage) (content.Page, error) {
	var wp wirePage
	if err := json.Unmarshal(raw, &wp); err != nil {
		return content.Page{}, fmt.Errorf("decode page: %w", err)
	}
	props := make(content.Properties, len(wp.Properties))
	for name, p := range wp.Properties {
		props[name] = toProperty(p)
	}
	return content.Page{
		ID:             wp.ID,
		URL:            wp.URL,
		CreatedTime:    wp.CreatedTime,
		LastEditedTime: wp.LastEditedTime,
		Properties:     props,
	}, nil
}

// toBlock decodes one block. Unsupported types keep only their header.
func toBlock(raw json.RawMessage) (content.Block, error) {
	var h wireBlockHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return content.Block{}, fmt.Errorf("decode block: %w", err)
	}
	b := content.Block{ID: h.ID, Type: content.BlockType(h.Type), HasChildren: h.HasChildren}
	if !b.Type.Supported() || b.Type == content.BlockDivider {
		return b, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return content.Block{}, fmt.Errorf("decode block %s: %w", h.ID, err)
	}
	payload, ok := fields[h.Type]
	if !ok {
		return b, nil
	}
	var p wireBlockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return content.Block{}, fmt.Errorf("decode %s block %s: %w", h.Type, h.ID, err)
	}

	switch b.Type {
	case content.BlockImage:
		u, external := fileURL(p.Type, p.File, p.External)
		b.Image = &content.Image{URL: u, External: external, Caption: toSpans(p.Caption)}
	case content.BlockCallout:
		b.RichText = toSpans(p.RichText)
		if p.Icon != nil && p.Icon.Type == "emoji" {
			b.Icon = p.Icon.Emoji
		}
	case content.BlockCode:
		b.RichText = toSpans(p.RichText)
		b.Language = p.Language
	default:
		b.RichText = toSpans(p.RichText)
	}
	return b, nil
}
