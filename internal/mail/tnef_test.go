package mail

import "testing"

func TestIsTNEFDetectsContentTypeAndFilename(t *testing.T) {
	cases := []struct {
		att  ParsedAttachment
		want bool
	}{
		{ParsedAttachment{ContentType: "application/ms-tnef"}, true},
		{ParsedAttachment{ContentType: "application/vnd.ms-tnef"}, true},
		{ParsedAttachment{ContentType: "application/octet-stream", Filename: "winmail.dat"}, true},
		{ParsedAttachment{ContentType: "image/png", Filename: "pic.png"}, false},
	}
	for _, c := range cases {
		if got := isTNEF(c.att); got != c.want {
			t.Errorf("isTNEF(%+v) = %v, want %v", c.att, got, c.want)
		}
	}
}

func TestExpandTNEFReturnsNilForNonTNEFAttachment(t *testing.T) {
	att := ParsedAttachment{ContentType: "image/png", Content: []byte("not tnef")}
	if got := ExpandTNEF(att); got != nil {
		t.Errorf("expected nil for a non-TNEF attachment, got %v", got)
	}
}

func TestExpandTNEFReturnsNilOnDecodeFailure(t *testing.T) {
	att := ParsedAttachment{ContentType: "application/ms-tnef", Filename: "winmail.dat", Content: []byte("garbage, not a real TNEF stream")}
	if got := ExpandTNEF(att); got != nil {
		t.Errorf("expected nil when the TNEF payload fails to decode, got %v", got)
	}
}

func TestExpandTNEFReturnsNilWhenContentMissing(t *testing.T) {
	att := ParsedAttachment{ContentType: "application/ms-tnef", Filename: "winmail.dat"}
	if got := ExpandTNEF(att); got != nil {
		t.Errorf("expected nil when no content was carried inline, got %v", got)
	}
}
