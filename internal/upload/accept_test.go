package upload

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptMatches(t *testing.T) {
	docs := ParseAccept(".pdf, .jpg,.jpeg ,.png")
	photos := ParseAccept("image/*")
	exact := ParseAccept("application/pdf")

	cases := []struct {
		name   string
		accept Accept
		file   File
		ok     bool
	}{
		{name: "extension_match", accept: docs, file: File{Name: "cac.PDF", ContentType: "application/pdf"}, ok: true},
		{name: "extension_match_without_type", accept: docs, file: File{Name: "bill.jpeg"}, ok: true},
		{name: "extension_mismatch", accept: docs, file: File{Name: "notes.docx", ContentType: "application/msword"}, ok: false},
		{name: "wildcard_match", accept: photos, file: File{Name: "shop", ContentType: "image/webp"}, ok: true},
		{name: "wildcard_with_params", accept: photos, file: File{Name: "shop.png", ContentType: "image/png; charset=binary"}, ok: true},
		{name: "wildcard_mismatch", accept: photos, file: File{Name: "shop.pdf", ContentType: "application/pdf"}, ok: false},
		{name: "exact_match", accept: exact, file: File{Name: "x", ContentType: "Application/PDF"}, ok: true},
		{name: "exact_mismatch", accept: exact, file: File{Name: "x.pdf", ContentType: "image/png"}, ok: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.accept.Matches(tc.file))
		})
	}
}

func TestValidateRejectsOversizeWithMeasuredSize(t *testing.T) {
	f := File{Name: "cac.pdf", ContentType: "application/pdf", Size: 26 * 1024 * 1024}

	err := Validate(f, ParseAccept(".pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, f.Size, verr.Size)
	assert.Contains(t, verr.Message, "26MB")
	assert.Contains(t, verr.Message, "25MB")
}

func TestValidateRejectsWrongType(t *testing.T) {
	err := Validate(File{Name: "id.gif", ContentType: "image/gif", Size: 10}, ParseAccept(".pdf,.jpg,.jpeg,.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidType))
	assert.Contains(t, err.Error(), "Invalid file type")
}

func TestValidateAcceptsExactLimit(t *testing.T) {
	require.NoError(t, Validate(File{Name: "a.png", ContentType: "image/png", Size: MaxFileSize}, ParseAccept("image/*")))
}

func TestFormatMB(t *testing.T) {
	assert.Equal(t, "25MB", FormatMB(MaxFileSize))
	assert.Equal(t, "1.5MB", FormatMB(3*512*1024))
}

func TestNewFileAndBase64(t *testing.T) {
	f, err := NewFile("note.txt", " Text/Plain ", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size)
	assert.Equal(t, "text/plain", f.ContentType)

	out, err := f.Base64()
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", out)
	assert.NotContains(t, out, ",")
}

func TestEncodeBase64ReadFailure(t *testing.T) {
	_, err := EncodeBase64(iotest.ErrReader(errors.New("disk gone")))
	require.Error(t, err)

	var rerr *ReadError
	assert.True(t, errors.As(err, &rerr))
}
