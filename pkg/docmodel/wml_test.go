package docmodel

import (
	"strings"
	"testing"
	"time"

	"github.com/antchfx/xmlquery"
)

func TestEncodeDocumentTree(t *testing.T) {
	reg := DefaultRegistry()
	root := &Node{Type: TypeDocument, Children: []Child{
		&Node{Type: TypeBody, Children: []Child{
			&Node{Type: TypeParagraph, Props: PropBag{"style": "Heading1"}, Children: []Child{
				textRun("Title"),
			}},
			&Node{Type: TypeParagraph, Children: []Child{
				&Node{Type: TypeRun, Props: PropBag{"bold": true}, Children: []Child{
					&Node{Type: TypeText, Children: []Child{Text("bold text")}},
				}},
				&Node{Type: TypeRun, Children: []Child{&Node{Type: TypeBreak, Props: PropBag{"breakType": "page"}}}},
			}},
		}},
	}}

	encoded, err := EncodeTree(reg, root)
	if err != nil {
		t.Fatalf("EncodeTree() error = %v", err)
	}
	output := encoded.OutputXML(true)

	for _, want := range []string{
		`<w:pStyle w:val="Heading1"`,
		`Title`,
		`<w:b`,
		`bold text`,
		`<w:br w:type="page"`,
		`xml:space="preserve"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestDecodeDocumentTree(t *testing.T) {
	reg := DefaultRegistry()
	root := mustParseWML(t,
		`<w:document><w:body>`+
			`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Title</w:t></w:r></w:p>`+
			`<w:p><w:r><w:rPr><w:b/><w:i/></w:rPr><w:t>styled</w:t></w:r></w:p>`+
			`</w:body></w:document>`)

	tree, err := DecodeTree(reg, root, []string{TypeDocument})
	if err != nil {
		t.Fatalf("DecodeTree() error = %v", err)
	}
	if tree.Type != TypeDocument {
		t.Fatalf("root type = %q, want %q", tree.Type, TypeDocument)
	}

	body, ok := tree.Children[0].(*Node)
	if !ok || body.Type != TypeBody {
		t.Fatalf("first child = %+v, want body", tree.Children[0])
	}
	if len(body.Children) != 2 {
		t.Fatalf("body has %d children, want 2", len(body.Children))
	}

	first := body.Children[0].(*Node)
	if got := first.Props["style"]; got != "Heading1" {
		t.Errorf("first paragraph style = %v, want Heading1", got)
	}
	if got := first.LeafText(); got != "Title" {
		t.Errorf("first paragraph text = %q, want Title", got)
	}

	second := body.Children[1].(*Node)
	run := second.Children[0].(*Node)
	if run.Props["bold"] != true || run.Props["italic"] != true {
		t.Errorf("run props = %+v, want bold and italic", run.Props)
	}
	if got := run.LeafText(); got != "styled" {
		t.Errorf("run text = %q, want styled", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	reg := DefaultRegistry()
	change := ChangeInfo{ID: "7", Author: "editor", Date: time.Date(2024, 3, 1, 12, 0, 0, 250_000_000, time.UTC)}
	root := &Node{Type: TypeDocument, Children: []Child{
		&Node{Type: TypeBody, Children: []Child{
			&Node{Type: TypeParagraph, Children: []Child{
				textRun("plain "),
				&Node{Type: TypeInsert, Props: PropBag{"change": change}, Children: []Child{textRun("inserted")}},
				&Node{Type: TypeDelete, Props: PropBag{"change": change}, Children: []Child{textRun("removed")}},
			}},
		}},
	}}

	encoded, err := EncodeTree(reg, root)
	if err != nil {
		t.Fatalf("EncodeTree() error = %v", err)
	}

	decoded, err := DecodeTree(reg, encoded, []string{TypeDocument})
	if err != nil {
		t.Fatalf("DecodeTree() error = %v", err)
	}

	if got, want := decoded.LeafText(), root.LeafText(); got != want {
		t.Errorf("round-trip text = %q, want %q", got, want)
	}

	body := decoded.Children[0].(*Node)
	para := body.Children[0].(*Node)
	if len(para.Children) != 3 {
		t.Fatalf("paragraph has %d children, want 3", len(para.Children))
	}
	ins := para.Children[1].(*Node)
	if ins.Type != TypeInsert {
		t.Errorf("second child type = %q, want %q", ins.Type, TypeInsert)
	}
	got, ok := ins.Props["change"].(ChangeInfo)
	if !ok {
		t.Fatalf("insert lost its change metadata: %+v", ins.Props)
	}
	if !got.EqualAtMillisecond(change) {
		t.Errorf("change = %+v, want %+v", got, change)
	}
	del := para.Children[2].(*Node)
	if del.Type != TypeDelete {
		t.Errorf("third child type = %q, want %q", del.Type, TypeDelete)
	}
}

func TestTrackedChangeEncodeRequiresMetadata(t *testing.T) {
	reg := DefaultRegistry()
	root := &Node{Type: TypeInsert, Children: []Child{textRun("orphan")}}

	_, err := reg.Encode(root, nil)
	if err == nil {
		t.Fatalf("Encode() succeeded, want error for missing change metadata")
	}
}

// The body-final paragraph absorbs the body's section properties into its
// own property group.
func TestSectionPropsFoldIntoFinalParagraph(t *testing.T) {
	reg := DefaultRegistry()
	root := &Node{Type: TypeDocument, Children: []Child{
		&Node{Type: TypeBody, Props: PropBag{"section": PropBag{"pageWidth": "11906", "pageHeight": "16838"}}, Children: []Child{
			&Node{Type: TypeParagraph, Children: []Child{textRun("first")}},
			&Node{Type: TypeParagraph, Children: []Child{textRun("last")}},
		}},
	}}

	encoded, err := EncodeTree(reg, root)
	if err != nil {
		t.Fatalf("EncodeTree() error = %v", err)
	}

	e := reg.Engine()
	paras, err := e.QueryAll(encoded, "w:body/w:p")
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(paras) != 2 {
		t.Fatalf("found %d paragraphs, want 2", len(paras))
	}

	if sect, _ := e.QueryFirst(paras[0], "w:pPr/w:sectPr"); sect != nil {
		t.Errorf("non-final paragraph carries section properties")
	}
	pgSz, err := e.QueryFirst(paras[1], "w:pPr/w:sectPr/w:pgSz")
	if err != nil {
		t.Fatalf("QueryFirst() error = %v", err)
	}
	if pgSz == nil {
		t.Fatalf("final paragraph missing folded section properties:\n%s", encoded.OutputXML(true))
	}
	if got := Attr(pgSz, "w"); got != "11906" {
		t.Errorf("page width = %q, want 11906", got)
	}
	if got := Attr(pgSz, "h"); got != "16838" {
		t.Errorf("page height = %q, want 16838", got)
	}
}

// Section data folded into the final paragraph on encode comes back as the
// body's section prop on decode.
func TestSectionPropsSurviveRoundTrip(t *testing.T) {
	reg := DefaultRegistry()
	section := PropBag{"pageWidth": "11906", "pageHeight": "16838"}
	root := &Node{Type: TypeDocument, Children: []Child{
		&Node{Type: TypeBody, Props: PropBag{"section": section}, Children: []Child{
			&Node{Type: TypeParagraph, Children: []Child{textRun("first")}},
			&Node{Type: TypeParagraph, Children: []Child{textRun("last")}},
		}},
	}}

	encoded, err := EncodeTree(reg, root)
	if err != nil {
		t.Fatalf("EncodeTree() error = %v", err)
	}
	decoded, err := DecodeTree(reg, encoded, []string{TypeDocument})
	if err != nil {
		t.Fatalf("DecodeTree() error = %v", err)
	}

	body := decoded.Children[0].(*Node)
	sec, ok := body.Props["section"].(PropBag)
	if !ok {
		t.Fatalf("body lost its section prop: %+v", body.Props)
	}
	if sec["pageWidth"] != "11906" || sec["pageHeight"] != "16838" {
		t.Errorf("section = %+v, want %+v", sec, section)
	}
	if len(body.Children) != 2 {
		t.Errorf("body has %d children, want 2 paragraphs", len(body.Children))
	}
}

// Prop extraction keys on the WordprocessingML namespace, not the prefix the
// source document happens to declare.
func TestDecodeAlternatePrefix(t *testing.T) {
	reg := DefaultRegistry()
	doc, err := xmlquery.Parse(strings.NewReader(
		`<x:document xmlns:x="` + NamespaceWordML + `"><x:body>` +
			`<x:p><x:pPr><x:pStyle x:val="Heading1"/></x:pPr><x:r><x:rPr><x:b/></x:rPr><x:t>alt</x:t></x:r></x:p>` +
			`</x:body></x:document>`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := firstElementChild(doc)

	tree, err := DecodeTree(reg, root, []string{TypeDocument})
	if err != nil {
		t.Fatalf("DecodeTree() error = %v", err)
	}
	body := tree.Children[0].(*Node)
	para := body.Children[0].(*Node)
	if got := para.Props["style"]; got != "Heading1" {
		t.Errorf("paragraph style = %v, want Heading1", got)
	}
	run := para.Children[0].(*Node)
	if run.Props["bold"] != true {
		t.Errorf("run props = %+v, want bold", run.Props)
	}
	if got := run.LeafText(); got != "alt" {
		t.Errorf("run text = %q, want alt", got)
	}
}

func TestSectionPropsNode(t *testing.T) {
	reg := DefaultRegistry()
	elem := mustParseWML(t, `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/></w:sectPr>`)

	tree, err := reg.DispatchDecode([]string{TypeSectionProps}, elem)
	if err != nil {
		t.Fatalf("DispatchDecode() error = %v", err)
	}
	if got := tree.Props["pageWidth"]; got != "12240" {
		t.Errorf("pageWidth = %v, want 12240", got)
	}
	if got := tree.Props["pageHeight"]; got != "15840" {
		t.Errorf("pageHeight = %v, want 15840", got)
	}
}

func TestSettingsDecode(t *testing.T) {
	tests := []struct {
		name      string
		fragment  string
		wantTrack bool
		wantDocID string
	}{
		{
			name:      "trackChanges on",
			fragment:  `<w:settings><w:trackChanges/></w:settings>`,
			wantTrack: true,
		},
		{
			name:      "trackRevisions alias",
			fragment:  `<w:settings><w:trackRevisions/></w:settings>`,
			wantTrack: true,
		},
		{
			name:     "explicit false toggle",
			fragment: `<w:settings><w:trackChanges w:val="false"/></w:settings>`,
		},
		{
			name:      "document identity",
			fragment:  `<w:settings><w15:docId w15:val="{ABC-123}"/></w:settings>`,
			wantDocID: "{ABC-123}",
		},
		{
			name:     "empty settings",
			fragment: `<w:settings/>`,
		},
	}

	reg := DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elem := mustParseWML(t, tt.fragment)
			tree, err := reg.DispatchDecode([]string{TypeSettings}, elem)
			if err != nil {
				t.Fatalf("DispatchDecode() error = %v", err)
			}
			track, _ := tree.Props["trackChanges"].(bool)
			if track != tt.wantTrack {
				t.Errorf("trackChanges = %v, want %v", track, tt.wantTrack)
			}
			docID, _ := tree.Props["documentID"].(string)
			if docID != tt.wantDocID {
				t.Errorf("documentID = %q, want %q", docID, tt.wantDocID)
			}
		})
	}
}

func TestSettingsEncode(t *testing.T) {
	reg := DefaultRegistry()
	root := &Node{Type: TypeSettings, Props: PropBag{
		"trackChanges": true,
		"documentID":   "{00000000-0000-0000-0000-000000000001}",
	}}

	encoded, err := reg.Encode(root, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	output := encoded.OutputXML(true)
	if !strings.Contains(output, "<w:trackChanges") {
		t.Errorf("output missing trackChanges toggle:\n%s", output)
	}
	if !strings.Contains(output, `w15:val="{00000000-0000-0000-0000-000000000001}"`) {
		t.Errorf("output missing document identity:\n%s", output)
	}
}
