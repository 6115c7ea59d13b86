package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video stores metadata about one uploaded and processed video asset.
// The bytes themselves live with the media provider and are addressed by
// PublicID. A Video is written exactly once, after the provider has accepted
// the upload, and is never updated by the upload workflow afterwards.
type Video struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	PublicID       string             `bson:"publicId" json:"publicId"`             // Asset identifier issued by the provider
	OriginalSize   string             `bson:"originalSize" json:"originalSize"`     // Bytes before processing, as reported by the client
	CompressedSize string             `bson:"compressedSize" json:"compressedSize"` // Bytes after processing, as reported by the provider
	Duration       float64            `bson:"duration" json:"duration"`             // Seconds; 0 when the provider omits it
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}
