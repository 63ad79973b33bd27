// Package gedcom decodes GEDCOM interchange files into individual and family
// records and resolves them into person records with parents and children.
package gedcom

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/sells-group/kinship-cli/internal/model"
)

// ErrMalformed reports structurally invalid GEDCOM input.
var ErrMalformed = eris.New("gedcom: malformed input")

// Individual is a decoded INDI record.
type Individual struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Sex              string   `json:"sex,omitempty"`
	Birth            string   `json:"birth,omitempty"`
	Death            string   `json:"death,omitempty"`
	FamilyAsChild    string   `json:"famc,omitempty"`
	FamiliesAsSpouse []string `json:"fams,omitempty"`
}

// Document is a decoded GEDCOM file.
type Document struct {
	Charset     string
	Individuals []Individual
	Families    []model.FamilyLink

	// Lossy is set when Charset had no exact decoder; non-ASCII names may
	// be garbled.
	Lossy bool
}

type line struct {
	level int
	xref  string
	tag   string
	value string
}

var charTagRe = regexp.MustCompile(`(?m)^\s*1\s+CHAR\s+(\S+)`)

// Decode reads a GEDCOM file. The HEAD.CHAR value selects the text
// decoding; a UTF-8 or UTF-16 byte order mark takes precedence.
func Decode(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "gedcom: read")
	}

	text, charset, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	doc := &Document{Charset: charset, Lossy: charset == "ANSEL"}
	p := &parser{doc: doc}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		raw := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		l, err := parseLine(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "gedcom: line %d", n)
		}
		p.feed(l)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "gedcom: scan")
	}
	p.flush()

	if !p.sawRecord {
		return nil, eris.Wrap(ErrMalformed, "gedcom: no level-0 records")
	}
	return doc, nil
}

// DecodeFile reads a GEDCOM file from disk.
func DecodeFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "gedcom: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	doc, err := Decode(f)
	if err != nil {
		return nil, eris.Wrapf(err, "gedcom: decode %s", path)
	}
	return doc, nil
}

func decodeText(raw []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}):
		return string(raw[3:]), "UTF-8", nil
	case bytes.HasPrefix(raw, []byte{0xFF, 0xFE}), bytes.HasPrefix(raw, []byte{0xFE, 0xFF}):
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", eris.Wrap(err, "gedcom: decode UTF-16")
		}
		return strings.TrimPrefix(string(out), "\ufeff"), "UNICODE", nil
	}

	charset := "UTF-8"
	if m := charTagRe.FindSubmatch(raw); m != nil {
		charset = strings.ToUpper(string(m[1]))
	}

	var enc encoding.Encoding
	switch charset {
	case "UTF-8", "UTF8", "ASCII":
		return string(raw), charset, nil
	case "UNICODE":
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case "ANSI":
		enc = charmap.Windows1252
	case "ANSEL":
		zap.L().Warn("gedcom: ANSEL has no decoder, reading as ISO-8859-1")
		enc = charmap.ISO8859_1
	default:
		e, err := htmlindex.Get(charset)
		if err != nil {
			return "", "", eris.Wrapf(err, "gedcom: unsupported charset %q", charset)
		}
		enc = e
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", "", eris.Wrapf(err, "gedcom: decode %s", charset)
	}
	return string(out), charset, nil
}

// parseLine splits "level [@xref@] TAG [value]".
func parseLine(s string) (line, error) {
	s = strings.TrimLeft(s, " \t\ufeff")
	levelStr, rest, _ := strings.Cut(s, " ")
	level, err := strconv.Atoi(levelStr)
	if err != nil || level < 0 {
		return line{}, eris.Wrapf(ErrMalformed, "invalid level %q", levelStr)
	}

	var l line
	l.level = level
	rest = strings.TrimLeft(rest, " ")
	if strings.HasPrefix(rest, "@") {
		end := strings.Index(rest[1:], "@")
		if end < 0 {
			return line{}, eris.Wrapf(ErrMalformed, "unterminated xref %q", rest)
		}
		l.xref = rest[1 : end+1]
		rest = strings.TrimLeft(rest[end+2:], " ")
	}

	l.tag, l.value, _ = strings.Cut(rest, " ")
	if l.tag == "" {
		return line{}, eris.Wrap(ErrMalformed, "missing tag")
	}
	return l, nil
}

// pointer extracts the id from an "@X@" value.
func pointer(v string) string {
	v = strings.TrimSpace(v)
	if len(v) < 3 || v[0] != '@' || v[len(v)-1] != '@' {
		return ""
	}
	return v[1 : len(v)-1]
}

// cleanName strips the surname slashes of a NAME value.
func cleanName(v string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(strings.ReplaceAll(v, "/", " ")), " "))
}

type parser struct {
	doc       *Document
	sawRecord bool

	indi *Individual
	fam  *model.FamilyLink

	// sub is the level-1 tag the current level-2 lines belong to.
	sub       string
	nameSeen  bool
	nameParts []string
}

func (p *parser) feed(l line) {
	if l.level == 0 {
		p.flush()
		p.sawRecord = true
		switch l.tag {
		case "INDI":
			p.indi = &Individual{ID: l.xref}
		case "FAM":
			p.fam = &model.FamilyLink{ID: l.xref}
		}
		return
	}

	switch {
	case p.indi != nil:
		p.feedIndividual(l)
	case p.fam != nil:
		p.feedFamily(l)
	}
}

func (p *parser) feedIndividual(l line) {
	if l.level == 1 {
		p.sub = l.tag
		switch l.tag {
		case "NAME":
			if !p.nameSeen {
				p.nameSeen = true
				p.nameParts = []string{l.value}
			} else {
				// Only the primary name is kept.
				p.sub = ""
			}
		case "SEX":
			p.indi.Sex = strings.TrimSpace(l.value)
		case "FAMC":
			if p.indi.FamilyAsChild == "" {
				p.indi.FamilyAsChild = pointer(l.value)
			}
		case "FAMS":
			if id := pointer(l.value); id != "" {
				p.indi.FamiliesAsSpouse = append(p.indi.FamiliesAsSpouse, id)
			}
		}
		return
	}

	if l.level != 2 {
		return
	}
	switch p.sub {
	case "NAME":
		switch l.tag {
		case "CONC":
			p.nameParts[len(p.nameParts)-1] += l.value
		case "CONT":
			p.nameParts = append(p.nameParts, l.value)
		}
	case "BIRT":
		if l.tag == "DATE" && p.indi.Birth == "" {
			p.indi.Birth = strings.TrimSpace(l.value)
		}
	case "DEAT":
		if l.tag == "DATE" && p.indi.Death == "" {
			p.indi.Death = strings.TrimSpace(l.value)
		}
	}
}

func (p *parser) feedFamily(l line) {
	if l.level != 1 {
		return
	}
	id := pointer(l.value)
	if id == "" {
		return
	}
	switch l.tag {
	case "HUSB":
		p.fam.HusbandID = id
	case "WIFE":
		p.fam.WifeID = id
	case "CHIL":
		p.fam.ChildIDs = append(p.fam.ChildIDs, id)
	}
}

func (p *parser) flush() {
	if p.indi != nil {
		p.indi.Name = cleanName(strings.Join(p.nameParts, " "))
		p.doc.Individuals = append(p.doc.Individuals, *p.indi)
	}
	if p.fam != nil {
		p.doc.Families = append(p.doc.Families, *p.fam)
	}
	p.indi, p.fam = nil, nil
	p.sub, p.nameSeen, p.nameParts = "", false, nil
}
