package mail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleMultipart = "Content-Type: multipart/mixed; boundary=BOUND\r\n" +
	"\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello there, this is the plain body.\r\n" +
	"--BOUND\r\n" +
	"Content-Type: image/png\r\n" +
	"Content-Disposition: attachment; filename=\"pic.png\"\r\n" +
	"\r\n" +
	"fakepngbytes\r\n" +
	"--BOUND--\r\n"

func TestParseMessageBodyFull(t *testing.T) {
	pm, err := ParseMessageBodyFull([]byte(sampleMultipart))
	require.NoError(t, err)
	require.Contains(t, pm.TextBody, "Hello there")
	require.True(t, pm.IsPlaintext)
	require.Len(t, pm.Attachments, 1)
	require.Equal(t, "pic.png", pm.Attachments[0].Filename)
	require.Equal(t, "image/png", pm.Attachments[0].ContentType)
	require.NotEmpty(t, pm.Snippet)
}

const sampleTNEF = "Content-Type: multipart/mixed; boundary=BOUND\r\n" +
	"\r\n" +
	"--BOUND\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"See attached.\r\n" +
	"--BOUND\r\n" +
	"Content-Type: application/ms-tnef\r\n" +
	"Content-Disposition: attachment; filename=\"winmail.dat\"\r\n" +
	"\r\n" +
	"not a real tnef stream\r\n" +
	"--BOUND--\r\n"

// A winmail.dat part that fails to decode still surfaces as a single
// attachment row (the walk falls back to the opaque part) rather than being
// dropped, exercising the call site wired in walk's binary-part branch.
func TestParseMessageBodyFullFallsBackToOpaqueAttachmentOnTNEFDecodeFailure(t *testing.T) {
	pm, err := ParseMessageBodyFull([]byte(sampleTNEF))
	require.NoError(t, err)
	require.Len(t, pm.Attachments, 1)
	require.Equal(t, "winmail.dat", pm.Attachments[0].Filename)
}
