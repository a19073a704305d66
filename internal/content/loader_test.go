package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	ids  map[string]string
	errs map[string]error
}

func (s *stubResolver) ResolveContent(_ context.Context, kind Kind, name string) (string, error) {
	key := kind.String() + ":" + name
	if err, ok := s.errs[key]; ok {
		return "", err
	}
	if id, ok := s.ids[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown content %s", key)
}

func writeList(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worklist.txt")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestReadTokenFileSkipsBlanksAndComments(t *testing.T) {
	path := writeList(t, "# pilot batch\n\npackage:Contoso Core\nbootimage:Boot (x64)\n")

	tokens, err := ReadTokenFile(path)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	assert.Equal(t, KindPackage, tokens[0].Kind)
	assert.Equal(t, "Contoso Core", tokens[0].Name)
	assert.Equal(t, 3, tokens[0].Line)
	assert.Equal(t, KindBootImage, tokens[1].Kind)
	assert.Equal(t, "Boot (x64)", tokens[1].Name)
}

func TestReadTokenFileRejectsMalformedLine(t *testing.T) {
	path := writeList(t, "package:ok\nnot-a-token\n")

	_, err := ReadTokenFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":2:")
}

func TestParseTokenKeepsColonInName(t *testing.T) {
	tok, err := ParseToken("application:Visio 2024: Pro")
	require.NoError(t, err)
	assert.Equal(t, KindApplication, tok.Kind)
	assert.Equal(t, "Visio 2024: Pro", tok.Name)
}

func TestLoadResolvesInFileOrder(t *testing.T) {
	path := writeList(t, "package:alpha\ndriver:beta\n")
	r := &stubResolver{ids: map[string]string{
		"package:alpha": "PKG001",
		"driver:beta":   "DRV001",
	}}

	list, err := Load(context.Background(), path, r)
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	assert.Equal(t, Item{Kind: KindPackage, ID: "PKG001", Name: "alpha", Index: 1}, list.At(1))
	assert.Equal(t, Item{Kind: KindDriver, ID: "DRV001", Name: "beta", Index: 2}, list.At(2))
}

func TestLoadFailsOnResolutionError(t *testing.T) {
	path := writeList(t, "package:alpha\npackage:ghost\n")
	wantErr := errors.New("not found")
	r := &stubResolver{
		ids:  map[string]string{"package:alpha": "PKG001"},
		errs: map[string]error{"package:ghost": wantErr},
	}

	_, err := Load(context.Background(), path, r)
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestLoadRejectsEmptyList(t *testing.T) {
	path := writeList(t, "# nothing here\n")
	_, err := Load(context.Background(), path, &stubResolver{})
	assert.Error(t, err)
}
