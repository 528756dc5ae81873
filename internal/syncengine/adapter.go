package syncengine

import (
	"fmt"
	"io"
	"strconv"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// clientAdapter implements IMAPFolder and IMAPLister against a real,
// authenticated imapclient.Client. It is the single place that touches the
// concrete go-imap/v2 API surface; everything above it (Engine) only sees
// the narrow interfaces in types.go.
type clientAdapter struct {
	client *imapclient.Client
}

// NewAdapter wraps an authenticated client for use by the Engine.
func NewAdapter(client *imapclient.Client) IMAPFolder {
	return &clientAdapter{client: client}
}

// NewLister wraps an authenticated client for folder discovery.
func NewLister(client *imapclient.Client) IMAPLister {
	return &clientAdapter{client: client}
}

func (a *clientAdapter) ListMailboxes() ([]string, error) {
	listCmd := a.client.List("", "*", nil)
	var paths []string
	for {
		mbox := listCmd.Next()
		if mbox == nil {
			break
		}
		paths = append(paths, mbox.Mailbox)
	}
	if err := listCmd.Close(); err != nil {
		return nil, fmt.Errorf("LIST failed: %w", err)
	}
	return paths, nil
}

func (a *clientAdapter) Select(path string) (ServerFolderState, error) {
	data, err := a.client.Select(path, nil).Wait()
	if err != nil {
		return ServerFolderState{}, err
	}
	state := ServerFolderState{Exists: data.NumMessages}
	if data.UIDValidity != 0 {
		v := int64(data.UIDValidity)
		state.UIDValidity = &v
	}
	if data.UIDNext != 0 {
		n := int64(data.UIDNext)
		state.UIDNext = &n
	}
	return state, nil
}

// fetchOptions is shared by both fetch paths: full envelope plus a peeked
// (non-consuming) body section, so fetching never marks a message seen.
func fetchOptions() *imap.FetchOptions {
	return &imap.FetchOptions{
		UID:      true,
		Envelope: true,
		Flags:    true,
		BodySection: []*imap.FetchItemBodySection{
			{Specifier: imap.PartSpecifierNone, Peek: true},
		},
	}
}

func (a *clientAdapter) FetchFull(startSeq uint32) ([]FetchedMessage, error) {
	seqSet := imap.SeqSet{}
	seqSet.AddRange(startSeq, 0) // 0 means "*", i.e. to the end of the mailbox
	return a.runFetch(a.client.Fetch(seqSet, fetchOptions()))
}

func (a *clientAdapter) FetchIncremental(storedUIDNext uint32) ([]FetchedMessage, error) {
	uidSet := imap.UIDSet{}
	uidSet.AddRange(imap.UID(storedUIDNext), 0) // storedUIDNext:*
	return a.runFetch(a.client.Fetch(uidSet, fetchOptions()))
}

func (a *clientAdapter) runFetch(fetchCmd *imapclient.FetchCommand) ([]FetchedMessage, error) {
	var out []FetchedMessage
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		var fm FetchedMessage
		var gotUID bool

		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch data := item.(type) {
			case imapclient.FetchItemDataUID:
				fm.UID = uint32(data.UID)
				gotUID = true
			case imapclient.FetchItemDataFlags:
				for _, f := range data.Flags {
					switch f {
					case imap.FlagSeen:
						fm.Seen = true
					case imap.FlagFlagged:
						fm.Flagged = true
					case imap.FlagDraft:
						fm.Draft = true
					}
				}
			case imapclient.FetchItemDataEnvelope:
				if data.Envelope != nil {
					applyEnvelope(&fm, data.Envelope)
				}
			case imapclient.FetchItemDataBodySection:
				if data.Literal != nil {
					b, err := io.ReadAll(data.Literal)
					if err == nil {
						fm.RawBody = b
					}
				}
			}
		}

		if !gotUID {
			continue
		}
		out = append(out, fm)
	}
	if err := fetchCmd.Close(); err != nil {
		return out, fmt.Errorf("FETCH failed: %w", err)
	}
	return out, nil
}

func (a *clientAdapter) SearchAllUIDs() ([]uint32, error) {
	data, err := a.client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("UID SEARCH ALL failed: %w", err)
	}
	uids := data.AllUIDs()
	out := make([]uint32, len(uids))
	for i, u := range uids {
		out[i] = uint32(u)
	}
	return out, nil
}

func applyEnvelope(fm *FetchedMessage, env *imap.Envelope) {
	fm.Subject = env.Subject
	fm.InternalDate = env.Date
	fm.MessageID = env.MessageID
	if env.InReplyTo != "" {
		fm.InReplyTo = []string{env.InReplyTo}
	}
	fm.From = toFetchedAddresses(env.From)
	fm.To = toFetchedAddresses(env.To)
	fm.Cc = toFetchedAddresses(env.Cc)
	fm.Bcc = toFetchedAddresses(env.Bcc)
	fm.ReplyTo = toFetchedAddresses(env.ReplyTo)
}

func toFetchedAddresses(list []imap.Address) []FetchedAddress {
	out := make([]FetchedAddress, len(list))
	for i, a := range list {
		out[i] = FetchedAddress{Name: a.Name, Mailbox: a.Mailbox, Host: a.Host}
	}
	return out
}

// uidString renders a uid in decimal. Nothing calls it: processMessage
// composes message ids with fmt.Sprint.
func uidString(uid uint32) string {
	return strconv.FormatUint(uint64(uid), 10)
}
