package gedcom

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const sampleGEDCOM = `0 HEAD
1 SOUR MYHERITAGE
1 CHAR UTF-8
0 @I1@ INDI
1 NAME Ibrahim /Manik/
1 SEX M
1 BIRT
2 DATE 1901
2 PLAC Male
1 DEAT
2 DATE 12 MAR 1970
1 FAMS @F1@
0 @I2@ INDI
1 NAME Aishath /Didi/
1 SEX F
1 FAMS @F1@
0 @I3@ INDI
1 NAME Ahmed /Yoosuf/
1 NAME Ahmed Y. /Manik/
1 SEX M
1 FAMC @F1@
0 @I4@ INDI
1 SEX F
1 FAMC @F1@
0 @F1@ FAM
1 HUSB @I1@
1 WIFE @I2@
1 CHIL @I3@
1 CHIL @I4@
0 TRLR
`

func TestDecode_Individuals(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleGEDCOM))
	require.NoError(t, err)

	require.Len(t, doc.Individuals, 4)
	assert.Equal(t, "UTF-8", doc.Charset)

	i1 := doc.Individuals[0]
	assert.Equal(t, "I1", i1.ID)
	assert.Equal(t, "Ibrahim Manik", i1.Name)
	assert.Equal(t, "M", i1.Sex)
	assert.Equal(t, "1901", i1.Birth)
	assert.Equal(t, "12 MAR 1970", i1.Death)
	assert.Equal(t, []string{"F1"}, i1.FamiliesAsSpouse)

	i3 := doc.Individuals[2]
	assert.Equal(t, "Ahmed Yoosuf", i3.Name, "primary name wins")
	assert.Equal(t, "F1", i3.FamilyAsChild)

	assert.Equal(t, "", doc.Individuals[3].Name)
}

func TestDecode_Families(t *testing.T) {
	doc, err := Decode(strings.NewReader(sampleGEDCOM))
	require.NoError(t, err)

	require.Len(t, doc.Families, 1)
	f := doc.Families[0]
	assert.Equal(t, "F1", f.ID)
	assert.Equal(t, "I1", f.HusbandID)
	assert.Equal(t, "I2", f.WifeID)
	assert.Equal(t, []string{"I3", "I4"}, f.ChildIDs)
}

func TestDecode_CRLFAndBOM(t *testing.T) {
	in := "\xEF\xBB\xBF" + strings.ReplaceAll(sampleGEDCOM, "\n", "\r\n")
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, doc.Individuals, 4)
	assert.Equal(t, "Ibrahim Manik", doc.Individuals[0].Name)
}

func TestDecode_NameContinuation(t *testing.T) {
	in := "0 HEAD\n0 @I1@ INDI\n1 NAME Moham\n2 CONC ed /Didi/\n0 TRLR\n"
	doc, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, doc.Individuals, 1)
	assert.Equal(t, "Mohamed Didi", doc.Individuals[0].Name)
}

func TestDecode_ANSICharset(t *testing.T) {
	text := strings.Replace(sampleGEDCOM, "1 CHAR UTF-8", "1 CHAR ANSI", 1)
	text = strings.Replace(text, "Aishath /Didi/", "Zoë /Didi/", 1)
	raw, err := charmap.Windows1252.NewEncoder().String(text)
	require.NoError(t, err)

	doc, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, "ANSI", doc.Charset)
	assert.Equal(t, "Zoë Didi", doc.Individuals[1].Name)
	assert.False(t, doc.Lossy)
}

func TestDecode_ANSELMarkedLossy(t *testing.T) {
	text := strings.Replace(sampleGEDCOM, "1 CHAR UTF-8", "1 CHAR ANSEL", 1)

	doc, err := Decode(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "ANSEL", doc.Charset)
	assert.True(t, doc.Lossy)
	assert.Len(t, doc.Individuals, 4)
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	raw, err := enc.String(sampleGEDCOM)
	require.NoError(t, err)

	doc, err := Decode(bytes.NewReader([]byte(raw)))
	require.NoError(t, err)
	assert.Equal(t, "UNICODE", doc.Charset)
	assert.Len(t, doc.Individuals, 4)
}

func TestDecode_UnsupportedCharset(t *testing.T) {
	in := "0 HEAD\n1 CHAR KLINGON\n0 TRLR\n"
	_, err := Decode(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported charset")
}

func TestDecode_InvalidLevel(t *testing.T) {
	in := "0 HEAD\nX @I1@ INDI\n"
	_, err := Decode(strings.NewReader(in))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecode_NoRecords(t *testing.T) {
	_, err := Decode(strings.NewReader("\n\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestParseLine(t *testing.T) {
	l, err := parseLine("0 @I12@ INDI")
	require.NoError(t, err)
	assert.Equal(t, 0, l.level)
	assert.Equal(t, "I12", l.xref)
	assert.Equal(t, "INDI", l.tag)

	l, err = parseLine("2 DATE 1 JAN 1900")
	require.NoError(t, err)
	assert.Equal(t, "DATE", l.tag)
	assert.Equal(t, "1 JAN 1900", l.value)

	_, err = parseLine("1 @broken INDI")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestPointer(t *testing.T) {
	assert.Equal(t, "F1", pointer("@F1@"))
	assert.Equal(t, "", pointer("F1"))
	assert.Equal(t, "", pointer("@@"))
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "family.ged")
	require.NoError(t, os.WriteFile(path, []byte(sampleGEDCOM), 0o600))

	doc, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Len(t, doc.Individuals, 4)

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.ged"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gedcom: open")
}
