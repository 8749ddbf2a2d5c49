package mlassist

import (
	"os"
	"path/filepath"
	"testing"
)

func writeVocab(t *testing.T, tokens []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.txt")
	data := ""
	for _, tok := range tokens {
		data += tok + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testVocab(t *testing.T) *WordPieceTokenizer {
	t.Helper()
	path := writeVocab(t, []string{
		"[PAD]", "[UNK]", "[CLS]", "[SEP]",
		"you", "should", "use", "test", "##ing", "##s",
	})
	tok, err := LoadWordPieceTokenizer(path)
	if err != nil {
		t.Fatalf("LoadWordPieceTokenizer failed: %v", err)
	}
	return tok
}

func TestEncodeBasic(t *testing.T) {
	tok := testVocab(t)

	ids, attn := tok.Encode("You should use", 8)
	want := []int64{2, 4, 5, 6, 3, 0, 0, 0} // CLS you should use SEP PAD PAD PAD
	if len(ids) != 8 || len(attn) != 8 {
		t.Fatalf("lengths = %d/%d, want 8/8", len(ids), len(attn))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
	wantAttn := []int64{1, 1, 1, 1, 1, 0, 0, 0}
	for i := range wantAttn {
		if attn[i] != wantAttn[i] {
			t.Errorf("attn[%d] = %d, want %d", i, attn[i], wantAttn[i])
		}
	}
}

func TestEncodeSubwords(t *testing.T) {
	tok := testVocab(t)

	// "testing" is absent as a whole word: test + ##ing
	ids, _ := tok.Encode("testing", 6)
	want := []int64{2, 7, 8, 3, 0, 0}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestEncodeUnknownWord(t *testing.T) {
	tok := testVocab(t)

	ids, _ := tok.Encode("zzzzz", 5)
	if ids[1] != 1 { // [UNK]
		t.Errorf("ids[1] = %d, want UNK id 1", ids[1])
	}
}

func TestEncodeTruncatesToSeqLen(t *testing.T) {
	tok := testVocab(t)

	ids, attn := tok.Encode("you should use test you should use test you should", 6)
	if len(ids) != 6 || len(attn) != 6 {
		t.Fatalf("lengths = %d/%d, want 6/6", len(ids), len(attn))
	}
	if ids[0] != 2 {
		t.Errorf("ids[0] = %d, want CLS", ids[0])
	}
	if ids[5] != 3 {
		t.Errorf("ids[%d] = %d, want SEP at the end", 5, ids[5])
	}
	for i, a := range attn {
		if a != 1 {
			t.Errorf("attn[%d] = %d, want full attention on truncated input", i, a)
		}
	}
}

func TestEncodeCaseFolds(t *testing.T) {
	tok := testVocab(t)
	upper, _ := tok.Encode("YOU SHOULD", 6)
	lower, _ := tok.Encode("you should", 6)
	for i := range upper {
		if upper[i] != lower[i] {
			t.Fatalf("case changed encoding: %v vs %v", upper, lower)
		}
	}
}

func TestEncodeZeroSeqLen(t *testing.T) {
	tok := testVocab(t)
	ids, attn := tok.Encode("you", 0)
	if ids != nil || attn != nil {
		t.Errorf("got %v/%v, want nil/nil", ids, attn)
	}
}
