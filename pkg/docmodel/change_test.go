package docmodel

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExtractChangeInfo(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     ChangeInfo
		wantErr  bool
		wantAttr string
	}{
		{
			name:     "complete metadata",
			fragment: `<w:ins w:id="1" w:author="A" w:date="2020-01-01T00:00:00.000Z"/>`,
			want: ChangeInfo{
				ID:     "1",
				Author: "A",
				Date:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "millisecond precision",
			fragment: `<w:del w:id="42" w:author="reviewer" w:date="2023-06-15T10:30:45.123Z"/>`,
			want: ChangeInfo{
				ID:     "42",
				Author: "reviewer",
				Date:   time.Date(2023, 6, 15, 10, 30, 45, 123_000_000, time.UTC),
			},
		},
		{
			name:     "zone offset parses",
			fragment: `<w:ins w:id="2" w:author="B" w:date="2020-06-01T10:00:00.500+02:00"/>`,
			want: ChangeInfo{
				ID:     "2",
				Author: "B",
				Date:   time.Date(2020, 6, 1, 8, 0, 0, 500_000_000, time.UTC),
			},
		},
		{
			name:     "missing id",
			fragment: `<w:ins w:author="A" w:date="2020-01-01T00:00:00.000Z"/>`,
			wantErr:  true,
			wantAttr: "w:id",
		},
		{
			name:     "missing author",
			fragment: `<w:ins w:id="1" w:date="2020-01-01T00:00:00.000Z"/>`,
			wantErr:  true,
			wantAttr: "w:author",
		},
		{
			name:     "missing date",
			fragment: `<w:ins w:id="1" w:author="A"/>`,
			wantErr:  true,
			wantAttr: "w:date",
		},
		{
			name:     "unparseable date",
			fragment: `<w:ins w:id="1" w:author="A" w:date="yesterday"/>`,
			wantErr:  true,
			wantAttr: "w:date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elem := mustParseWML(t, tt.fragment)
			got, err := ExtractChangeInfo(elem)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("ExtractChangeInfo() succeeded, want error")
				}
				if !IsMalformedChangeMetadataError(err) {
					t.Errorf("error = %T, want *MalformedChangeMetadataError", err)
				}
				var mErr *MalformedChangeMetadataError
				if errors.As(err, &mErr) && mErr.Attribute != tt.wantAttr {
					t.Errorf("Attribute = %q, want %q", mErr.Attribute, tt.wantAttr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractChangeInfo() error = %v", err)
			}
			if !got.EqualAtMillisecond(tt.want) {
				t.Errorf("ExtractChangeInfo() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestChangeInfoDateString(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{
			name: "UTC midnight",
			date: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			want: "2020-01-01T00:00:00.000Z",
		},
		{
			name: "milliseconds kept",
			date: time.Date(2023, 6, 15, 10, 30, 45, 123_000_000, time.UTC),
			want: "2023-06-15T10:30:45.123Z",
		},
		{
			name: "offset normalized to UTC",
			date: time.Date(2020, 6, 1, 10, 0, 0, 500_000_000, time.FixedZone("CEST", 2*3600)),
			want: "2020-06-01T08:00:00.500Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := ChangeInfo{ID: "1", Author: "A", Date: tt.date}
			if got := ci.DateString(); got != tt.want {
				t.Errorf("DateString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// Decoding a tracked insertion and re-encoding it must reproduce the original
// attribute values byte for byte, including the millisecond date form.
func TestChangeMetadataRoundTrip(t *testing.T) {
	const attrs = `w:id="1" w:author="A" w:date="2020-01-01T00:00:00.000Z"`

	reg := DefaultRegistry()
	elem := mustParseWML(t, `<w:ins `+attrs+`><w:r><w:t>added</w:t></w:r></w:ins>`)

	tree, err := reg.DispatchDecode([]string{TypeInsert}, elem)
	if err != nil {
		t.Fatalf("DispatchDecode() error = %v", err)
	}
	change, ok := tree.Props["change"].(ChangeInfo)
	if !ok {
		t.Fatalf("decoded insert carries no change metadata: %+v", tree.Props)
	}
	if change.ID != "1" || change.Author != "A" {
		t.Errorf("change = %+v, want id=1 author=A", change)
	}

	encoded, err := reg.Encode(tree, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	output := encoded.OutputXML(true)
	if !strings.Contains(output, attrs) {
		t.Errorf("re-encoded output %q does not contain %q", output, attrs)
	}
	if !strings.Contains(output, "added") {
		t.Errorf("re-encoded output %q lost the run text", output)
	}
}

func TestChangeInfoEqualAtMillisecond(t *testing.T) {
	base := ChangeInfo{ID: "1", Author: "A", Date: time.Date(2020, 1, 1, 0, 0, 0, 123_000_000, time.UTC)}

	tests := []struct {
		name  string
		other ChangeInfo
		want  bool
	}{
		{
			name:  "identical",
			other: base,
			want:  true,
		},
		{
			name:  "sub-millisecond difference ignored",
			other: ChangeInfo{ID: "1", Author: "A", Date: base.Date.Add(400 * time.Microsecond)},
			want:  true,
		},
		{
			name:  "same instant in another zone",
			other: ChangeInfo{ID: "1", Author: "A", Date: base.Date.In(time.FixedZone("X", 3600))},
			want:  true,
		},
		{
			name:  "different millisecond",
			other: ChangeInfo{ID: "1", Author: "A", Date: base.Date.Add(time.Millisecond)},
			want:  false,
		},
		{
			name:  "different author",
			other: ChangeInfo{ID: "1", Author: "B", Date: base.Date},
			want:  false,
		},
		{
			name:  "different id",
			other: ChangeInfo{ID: "2", Author: "A", Date: base.Date},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.EqualAtMillisecond(tt.other); got != tt.want {
				t.Errorf("EqualAtMillisecond() = %v, want %v", got, tt.want)
			}
		})
	}
}
