package mailer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationMessage(t *testing.T) {
	m := newConfirmationMessage("clinic@example.com", "Happy Paws", BookingConfirmation{
		To:        "jane@example.com",
		OwnerName: "Jane",
		PetName:   "Rex <3",
		Date:      "2025-03-04",
		Time:      "09:30",
	})

	assert.Equal(t, []string{"jane@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Appointment confirmed for Rex <3"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()
	assert.Contains(t, raw, "Happy Paws")
	assert.Contains(t, raw, "2025-03-04 at 09:30")
	assert.Contains(t, raw, "Rex &lt;3")
}
