package capture

import (
	"errors"
	"testing"
)

func TestVP8Decoder_EmptyData(t *testing.T) {
	d := NewVP8Decoder()
	if _, err := d.Decode(nil, MimeTypeVP8); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestVP8Decoder_UnsupportedCodec(t *testing.T) {
	d := NewVP8Decoder()
	if _, err := d.Decode([]byte{0x00}, "video/H264"); err == nil {
		t.Error("expected error for non-VP8 codec")
	}
}

func TestVP8Decoder_Interframe(t *testing.T) {
	d := NewVP8Decoder()
	_, err := d.Decode([]byte{0x01, 0x02, 0x03}, MimeTypeVP8)
	if !errors.Is(err, ErrNotKeyframe) {
		t.Errorf("expected ErrNotKeyframe, got %v", err)
	}
}

func TestVP8Decoder_TruncatedKeyframe(t *testing.T) {
	d := NewVP8Decoder()
	if _, err := d.Decode([]byte{0x00, 0x00}, MimeTypeVP8); err == nil {
		t.Error("expected error for truncated keyframe")
	}
}

func TestVP8Decoder_Close(t *testing.T) {
	if err := NewVP8Decoder().Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}
