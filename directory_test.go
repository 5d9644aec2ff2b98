package tofs

import (
	"errors"
	"testing"
	"time"
)

func testingCreate(t *testing.T, fs *Fs, names ...string) {
	t.Helper()
	for _, name := range names {
		if _, err := fs.OpenFile(ModeNewFile, name, nil, true, true); err != nil {
			t.Fatalf("OpenFile(%q) error = %v", name, err)
		}
	}
}

func TestFs_FindFile(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	testingCreate(t, fs, "Hello.txt", "hello.TXT", "LongFile.tex", "DATA.BIN", "été.txt")

	binType := uint16(0x0200)
	txtType := uint16(0x01FF)

	tests := []struct {
		name          string
		find          string
		typ           *uint16
		caseSensitive bool
		want          int
		wantErr       error
	}{
		{name: "exact", find: "DATA.BIN", caseSensitive: true, want: 3},
		{name: "exact wins over folded", find: "hello.TXT", caseSensitive: false, want: 1},
		{name: "folded", find: "HELLO.TXT", caseSensitive: false, want: 0},
		{name: "case sensitive miss", find: "HELLO.TXT", caseSensitive: true, wantErr: ErrFileNotFound},
		{name: "canonical name", find: "LongFileName.text", caseSensitive: true, want: 2},
		{name: "matching type", find: "DATA.BIN", typ: &binType, caseSensitive: true, want: 3},
		{name: "other type", find: "DATA.BIN", typ: &txtType, caseSensitive: true, wantErr: ErrFileNotFound},
		{name: "missing", find: "NOPE.BIN", caseSensitive: false, wantErr: ErrFileNotFound},
		{name: "folded around accents", find: "été.TXT", caseSensitive: false, want: 4},
		{name: "accents keep their case", find: "ÉTÉ.txt", caseSensitive: false, wantErr: ErrFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.FindFile(tt.find, tt.typ, tt.caseSensitive)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("FindFile() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindFile() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FindFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_equalFoldASCII(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"HELLO.TXT", "hello.txt", true},
		{"Hello.txt", "Hello.txt", true},
		{"été", "éTé", true},
		{"été", "ÉTÉ", false},
		{"A[", "a{", false},
		{"ABC", "AB", false},
	}
	for _, tt := range tests {
		if got := equalFoldASCII(tt.a, tt.b); got != tt.want {
			t.Errorf("equalFoldASCII(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFs_Rename(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	testingCreate(t, fs, "A.TXT", "B.TXT")

	if err := fs.Rename("A.TXT", nil, true, "B.TXT"); !errors.Is(err, ErrRenameConflict) {
		t.Errorf("Rename() to a used name error = %v, want %v", err, ErrRenameConflict)
	}
	if err := fs.Rename("X.TXT", nil, true, "Y.TXT"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Rename() of a missing file error = %v, want %v", err, ErrFileNotFound)
	}

	if err := fs.Rename("A.TXT", nil, true, "C.DAT"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	name, _, err := fs.NameAt(0)
	if err != nil {
		t.Fatal(err)
	}
	if name != "C.DAT" {
		t.Errorf("NameAt(0) = %q, want %q", name, "C.DAT")
	}
	if _, err := fs.FindFile("A.TXT", nil, true); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("FindFile() of the old name error = %v, want %v", err, ErrFileNotFound)
	}
}

func TestFs_Delete(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	testingCreate(t, fs, "A.TXT", "B.TXT")

	if err := fs.Delete("A.TXT", nil, true); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := fs.Delete("A.TXT", nil, true); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("second Delete() error = %v, want %v", err, ErrFileNotFound)
	}
	if _, _, err := fs.NameAt(0); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("NameAt() of an erased entry error = %v, want %v", err, ErrFileNotFound)
	}

	// Never used entries are taken before erased ones.
	testingCreate(t, fs, "C.TXT")
	if idx, err := fs.FindFile("C.TXT", nil, true); err != nil || idx != 2 {
		t.Errorf("FindFile() = %v, %v, want 2, nil", idx, err)
	}

	if err := fs.DeleteIndex(1); err != nil {
		t.Fatalf("DeleteIndex() error = %v", err)
	}
	if err := fs.DeleteIndex(1); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("second DeleteIndex() error = %v, want %v", err, ErrFileNotFound)
	}
	if got, want := fs.FreeSpace(), testGeometry.MaxBlocks()-2-1; got != want {
		t.Errorf("FreeSpace() = %v, want %v", got, want)
	}
}

func TestFs_SetComment(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		comment      string
		wantComment  string
		wantType     uint16
		wantExtra    uint16
		wantHasExtra bool
	}{
		{name: "plain", file: "A.TXT", comment: "notes", wantComment: "notes", wantType: 0x01FF},
		{name: "truncated", file: "A.TXT", comment: "a long comment", wantComment: "a long c", wantType: 0x01FF},
		{name: "type prefix", file: "A.TXT", comment: "(0300)asm", wantComment: "asm", wantType: 0x0300},
		{name: "extra without CHG suffix", file: "A.TXT", comment: "(01FF1234)", wantComment: "", wantType: 0x01FF},
		{name: "extra with CHG suffix", file: "A.CHG", comment: "(01FF1234)", wantComment: "", wantType: 0x01FF, wantExtra: 0x1234, wantHasExtra: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := testingFormatted(t, testGeometry)
			testingCreate(t, fs, tt.file)

			if err := fs.SetComment(tt.file, nil, true, tt.comment); err != nil {
				t.Fatalf("SetComment() error = %v", err)
			}
			entry, err := fs.Stat(tt.file, nil, true)
			if err != nil {
				t.Fatal(err)
			}
			if entry.Comment != tt.wantComment {
				t.Errorf("Comment = %q, want %q", entry.Comment, tt.wantComment)
			}
			if entry.Type != tt.wantType {
				t.Errorf("Type = 0x%04X, want 0x%04X", entry.Type, tt.wantType)
			}
			if entry.HasExtra != tt.wantHasExtra || entry.Extra != tt.wantExtra {
				t.Errorf("Extra = 0x%04X, %v, want 0x%04X, %v", entry.Extra, entry.HasExtra, tt.wantExtra, tt.wantHasExtra)
			}
		})
	}
}

func TestFs_SetDate(t *testing.T) {
	date := time.Date(1999, time.December, 31, 23, 58, 1, 0, time.UTC)

	tests := []struct {
		name          string
		extended      bool
		want          time.Time
		wantTimeValid bool
	}{
		{name: "standard", extended: false, want: time.Date(1999, time.December, 31, 0, 0, 0, 0, time.UTC)},
		{name: "extended", extended: true, want: date, wantTimeValid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geo := testGeometry
			geo.Extended = tt.extended
			fs, _ := testingFormatted(t, geo)
			testingCreate(t, fs, "DATED.TXT")

			if err := fs.SetDate("DATED.TXT", nil, true, date); err != nil {
				t.Fatalf("SetDate() error = %v", err)
			}
			entry, err := fs.Stat("DATED.TXT", nil, true)
			if err != nil {
				t.Fatal(err)
			}
			if !entry.DateValid {
				t.Error("DateValid = false, want true")
			}
			if entry.TimeValid != tt.wantTimeValid {
				t.Errorf("TimeValid = %v, want %v", entry.TimeValid, tt.wantTimeValid)
			}
			if !entry.ModTime.Equal(tt.want) {
				t.Errorf("ModTime = %v, want %v", entry.ModTime, tt.want)
			}
		})
	}
}

func TestFs_create_date(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)

	if _, err := fs.OpenFile(ModeNewFile, "NODATE.BIN", nil, true, false); err != nil {
		t.Fatal(err)
	}
	testingCreate(t, fs, "DATE.BIN")

	entry, err := fs.Stat("NODATE.BIN", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	if entry.DateValid || !entry.ModTime.IsZero() {
		t.Errorf("entry without date: DateValid = %v, ModTime = %v", entry.DateValid, entry.ModTime)
	}

	entry, err = fs.Stat("DATE.BIN", nil, true)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(testClock.Year(), testClock.Month(), testClock.Day(), 0, 0, 0, 0, time.UTC)
	if !entry.DateValid || !entry.ModTime.Equal(want) {
		t.Errorf("entry with date: DateValid = %v, ModTime = %v, want %v", entry.DateValid, entry.ModTime, want)
	}
}

func TestFs_create_type(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	asm := uint16(0x03FF)

	if _, err := fs.OpenFile(ModeNewFile, "PROG.ASM", nil, true, true); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.OpenFile(ModeNewFile, "PROG.XYZ", nil, true, true); err != nil {
		t.Fatal(err)
	}
	if _, err := fs.OpenFile(ModeNewFile, "FORCED.BIN", &asm, true, true); err != nil {
		t.Fatal(err)
	}

	for idx, want := range []uint16{0x03FF, 0x0200, 0x03FF} {
		_, typ, err := fs.NameAt(idx)
		if err != nil {
			t.Fatal(err)
		}
		if typ != want {
			t.Errorf("NameAt(%d) type = 0x%04X, want 0x%04X", idx, typ, want)
		}
	}
}

func TestCursor_Next(t *testing.T) {
	fs, _ := testingFormatted(t, testGeometry)
	testingCreate(t, fs, "A.TXT", "B.TXT", "C.TXT")
	if err := fs.Delete("B.TXT", nil, true); err != nil {
		t.Fatal(err)
	}

	h, err := fs.OpenFile(ModeOldFile, "C.TXT", nil, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Write(pattern(600)); err != nil {
		t.Fatal(err)
	}

	var got []Entry
	cursor := fs.Examine()
	for {
		entry, err := cursor.Next()
		if errors.Is(err, ErrNoMoreEntries) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, entry)
	}

	if len(got) != 2 {
		t.Fatalf("Next() returned %v entries, want 2", len(got))
	}
	if got[0].Name != "A.TXT" || got[0].Index != 0 || got[0].Size != 0 || got[0].Blocks != 1 {
		t.Errorf("first entry = %+v", got[0])
	}
	if got[1].Name != "C.TXT" || got[1].Index != 2 || got[1].Size != 600 || got[1].Blocks != 2 {
		t.Errorf("second entry = %+v", got[1])
	}

	if _, err := cursor.Next(); !errors.Is(err, ErrNoMoreEntries) {
		t.Errorf("Next() after the end error = %v, want %v", err, ErrNoMoreEntries)
	}
}
