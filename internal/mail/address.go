package mail

import (
	"encoding/json"

	"github.com/emersion/go-imap/v2"
)

// Address is the on-the-wire JSON shape for a single address.
type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// SerializeAddresses produces a JSON array of {email, name?} from envelope
// address parts. email = "{mailbox}@{host}"; missing mailbox or host drops
// the address entirely (spec.md §4.2).
func SerializeAddresses(list []imap.Address) (string, error) {
	out := make([]Address, 0, len(list))
	for _, a := range list {
		if a.Mailbox == "" || a.Host == "" {
			continue
		}
		out = append(out, Address{
			Email: a.Mailbox + "@" + a.Host,
			Name:  DecodeHeader(a.Name),
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
