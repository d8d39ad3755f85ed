package domain

// Image описывает изображение товара, которое хранится в S3
type Image struct {
	ObjectKey string
	Bytes     []byte
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size     int64
	MimeType string // Example: "image/jpeg"
}

func NewImage(objectKey string, data []byte, size int64, mimeType string) *Image {
	return &Image{
		ObjectKey: objectKey,
		Bytes:     data,
		Size:      size,
		MimeType:  mimeType,
	}
}
