package adapter

// QREncoder renders a payload string into a PNG image.
type QREncoder interface {
	Encode(payload string, size int) ([]byte, error)
}
