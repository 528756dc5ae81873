package imapconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXOAUTH2Blob(t *testing.T) {
	c := xoauth2Client{blob: "user=alice@example.com\x01auth=Bearer tok123\x01\x01"}
	mech, ir, err := c.Start()
	assert.NoError(t, err)
	assert.Equal(t, "XOAUTH2", mech)
	assert.Equal(t, "user=alice@example.com\x01auth=Bearer tok123\x01\x01", string(ir))
}
