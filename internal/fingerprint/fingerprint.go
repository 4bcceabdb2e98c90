// Package fingerprint computes compact digests of captured frames for
// dedup cache keying.
package fingerprint

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	_ "image/png"  // PNG decoder

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

// downsampleSize is the edge length frames are reduced to before hashing.
// Hashing the downsampled image makes the digest cheap and tolerant of
// sub-pixel noise; hash collisions are an accepted tradeoff.
const downsampleSize = 64

// Fingerprint is a 64-bit perceptual digest of a downsampled frame.
// Equal fingerprints are treated as identical input for caching; no
// near-duplicate distance matching is performed.
type Fingerprint uint64

func (f Fingerprint) String() string { return fmt.Sprintf("%016x", uint64(f)) }

// FromImage computes the fingerprint of a decoded image.
func FromImage(img image.Image) (Fingerprint, error) {
	small := resize.Resize(downsampleSize, downsampleSize, img, resize.Bilinear)
	hash, err := goimagehash.PerceptionHash(small)
	if err != nil {
		return 0, err
	}
	return Fingerprint(hash.GetHash()), nil
}

// FromBytes decodes an encoded frame and computes its fingerprint.
func FromBytes(data []byte) (Fingerprint, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	return FromImage(img)
}
