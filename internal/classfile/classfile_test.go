package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jumble.dev/pkg/jumble/internal/model"
	"jumble.dev/pkg/jumble/internal/testutil"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		class testutil.Class
		want  m.ClassMetadata
	}{
		{
			name:  "root type",
			class: testutil.Class{Name: "java.lang.Object"},
			want:  m.ClassMetadata{Name: "java.lang.Object", Interfaces: []m.ClassName{}},
		},
		{
			name:  "class with super",
			class: testutil.Class{Name: "com.example.Dog", Super: "com.example.Animal"},
			want: m.ClassMetadata{
				Name:       "com.example.Dog",
				SuperName:  "com.example.Animal",
				Interfaces: []m.ClassName{},
			},
		},
		{
			name: "class with interfaces",
			class: testutil.Class{
				Name:       "a.Impl",
				Super:      "java.lang.Object",
				Interfaces: []string{"a.Runner", "a.Walker"},
			},
			want: m.ClassMetadata{
				Name:       "a.Impl",
				SuperName:  "java.lang.Object",
				Interfaces: []m.ClassName{"a.Runner", "a.Walker"},
			},
		},
		{
			name:  "names outside ascii",
			class: testutil.Class{Name: "caf\u00e9.Men\u00fc", Super: "math.\U0001D4B3Base"},
			want: m.ClassMetadata{
				Name:       "caf\u00e9.Men\u00fc",
				SuperName:  "math.\U0001D4B3Base",
				Interfaces: []m.ClassName{},
			},
		},
		{
			name:  "embedded nul",
			class: testutil.Class{Name: "a.Odd\x00Name", Super: "java.lang.Object"},
			want: m.ClassMetadata{
				Name:       "a.Odd\x00Name",
				SuperName:  "java.lang.Object",
				Interfaces: []m.ClassName{},
			},
		},
		{
			name:  "interface",
			class: testutil.Class{Name: "a.Runner", Super: "java.lang.Object", Interface: true},
			want: m.ClassMetadata{
				Name:        "a.Runner",
				IsInterface: true,
				SuperName:   "java.lang.Object",
				Interfaces:  []m.ClassName{},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := Parse(testutil.ClassBytes(tt.class))
			require.NoError(t, err)
			assert.Equal(t, uint16(52), cf.MajorVersion)
			assert.Equal(t, tt.want, cf.Metadata())
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	valid := testutil.ClassBytes(testutil.Class{Name: "a.B", Super: "java.lang.Object"})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, valid[4:]...)},
		{"truncated header", valid[:8]},
		{"truncated pool", valid[:20]},
		{"unknown tag", append(append([]byte{}, valid[:10]...), 0x63, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParse_BadThisClassIndex(t *testing.T) {
	data := testutil.ClassBytes(testutil.Class{Name: "a.B"})

	// this_class sits right after the access flags; point it at the long constant.
	n := len(data)
	// layout tail: flags(2) this(2) super(2) ifaces(2) fields(2) methods(2) attrs(2)
	thisOffset := n - 12
	data[thisOffset] = 0
	data[thisOffset+1] = 1

	_, err := Parse(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Contains(t, err.Error(), "this_class")
}

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr bool
	}{
		{name: "ascii", data: []byte("com/example/Dog"), want: "com/example/Dog"},
		{name: "empty", data: []byte{}, want: ""},
		{name: "two byte", data: []byte{'c', 'a', 'f', 0xC3, 0xA9}, want: "caf\u00e9"},
		{name: "encoded nul", data: []byte{'a', 0xC0, 0x80, 'b'}, want: "a\x00b"},
		{
			name: "surrogate pair",
			data: []byte{0xED, 0xA0, 0xB5, 0xED, 0xB2, 0xB3},
			want: "\U0001D4B3",
		},
		{name: "raw nul", data: []byte{'a', 0, 'b'}, wantErr: true},
		{name: "truncated two byte", data: []byte{'a', 0xC3}, wantErr: true},
		{name: "truncated three byte", data: []byte{0xE2, 0x82}, wantErr: true},
		{name: "four byte form", data: []byte{0xF0, 0x9D, 0x92, 0xB3}, wantErr: true},
		{name: "bad continuation", data: []byte{0xC3, 'a'}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeModifiedUTF8(tt.data)
			if tt.wantErr {
				require.ErrorIs(t, err, errBadUTF8)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_InvalidUtf8Constant(t *testing.T) {
	data := testutil.ClassBytes(testutil.Class{Name: "a.B", Super: "java.lang.Object"})

	// Pool: long at 1-2, then Utf8 "a/B" at 3. Its payload starts after
	// magic(4) versions(4) count(2) long(9) tag(1) length(2).
	payload := 4 + 4 + 2 + 9 + 1 + 2
	require.Equal(t, "a/B", string(data[payload:payload+3]))
	data[payload+1] = 0

	_, err := Parse(data)
	require.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, errBadUTF8)
}
