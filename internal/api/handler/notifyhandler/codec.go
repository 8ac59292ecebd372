package notifyhandler

import (
	"errors"
	"io"
	"net/http"
	"notify/pkg/domain"
	"notify/pkg/serrors"

	"github.com/go-faster/jx"
)

// maxBodyBytes bounds the request body; a subscription is a single short field.
const maxBodyBytes = 16 << 10

// decodeSubscriber reads {"email": "..."} from r. Unknown fields are ignored
// and a non-string email is treated as missing. Anything but whitespace after
// the object is rejected.
func decodeSubscriber(r io.Reader) (domain.Subscriber, error) {
	var sub domain.Subscriber
	d := jx.Decode(r, 512)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "email" || d.Next() != jx.String {
			return d.Skip() //nolint: wrapcheck
		}
		email, err := d.Str()
		if err != nil {
			return err //nolint: wrapcheck
		}
		sub.Email = email

		return nil
	})
	if err != nil {
		return domain.Subscriber{}, serrors.Wrap(serrors.ErrBadRequest, err, "could not decode request body")
	}
	// Skip reports io.EOF only when nothing but whitespace is left
	if err := d.Skip(); !errors.Is(err, io.EOF) {
		return domain.Subscriber{}, serrors.With(serrors.ErrBadRequest, "unexpected data after request body")
	}

	return sub, nil
}

func encodeSuccess() []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("success", func(e *jx.Encoder) { e.Bool(true) })
		e.Field("message", func(e *jx.Encoder) { e.Str(MessageSubscribed) })
	})

	return e.Bytes()
}

func encodeError(message string) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("error", func(e *jx.Encoder) { e.Str(message) })
	})

	return e.Bytes()
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
