package sigconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `
specification "lnk" {
    mime-type "application/x-ms-shortcut"
    uti "com.microsoft.shortcut"
    signature offset=0 bound=#true expression="4c0000000114020000000000c000000000000046"
}

specification "zip_eocd" {
    mime-type "application/zip"
    signature offset=-22 bound=#true expression="504b0506"
    signature bound=#false expression="504b0304"
}
`

func TestParseBuildsStoreFromDocument(t *testing.T) {
	store, err := Parse(sampleDocument)
	require.NoError(t, err)
	require.Equal(t, 2, store.Len())

	lnk, ok := store.Specification("lnk")
	require.True(t, ok)
	assert.Equal(t, []string{"application/x-ms-shortcut"}, lnk.MimeTypes)
	assert.Equal(t, []string{"com.microsoft.shortcut"}, lnk.UTI)
	require.Len(t, lnk.Signatures, 1)
	assert.True(t, lnk.Signatures[0].IsBound)
	require.NotNil(t, lnk.Signatures[0].Offset)
	assert.Equal(t, int64(0), *lnk.Signatures[0].Offset)
	assert.Equal(t, byte(0x4c), lnk.Signatures[0].Expression[0])

	zip, ok := store.Specification("zip_eocd")
	require.True(t, ok)
	require.Len(t, zip.Signatures, 2)
	assert.True(t, zip.Signatures[0].IsBound)
	require.NotNil(t, zip.Signatures[0].Offset)
	assert.Equal(t, int64(-22), *zip.Signatures[0].Offset)
	assert.False(t, zip.Signatures[1].IsBound)
	assert.Nil(t, zip.Signatures[1].Offset)
}

func TestParseRejectsInvalidHexExpression(t *testing.T) {
	_, err := Parse(`
specification "broken" {
    signature expression="not-hex"
}
`)
	require.Error(t, err)
}

func TestParseRejectsDuplicateIdentifier(t *testing.T) {
	_, err := Parse(`
specification "dup" {
    signature expression="41424344"
}
specification "dup" {
    signature expression="45464748"
}
`)
	require.Error(t, err)
}
