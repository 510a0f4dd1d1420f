package wordpress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAttachmentMetadata(t *testing.T) {
	serialized := `a:5:{s:5:"width";s:4:"1024";s:6:"height";i:768;s:4:"file";s:15:"2013/01/big.png";` +
		`s:5:"sizes";a:3:{s:6:"medium";a:3:{s:4:"file";s:15:"big-300x225.png";s:5:"width";i:300;s:6:"height";i:225;}` +
		`s:9:"thumbnail";a:3:{s:4:"file";s:15:"big-150x150.png";s:5:"width";i:150;s:6:"height";i:150;}` +
		`s:5:"empty";a:1:{s:4:"file";s:0:"";}}` +
		`s:10:"image_meta";a:4:{s:8:"aperture";s:3:"2.8";s:3:"iso";i:0;s:6:"camera";s:5:"Nikon";s:5:"title";s:0:"";}}`

	meta, err := ParseAttachmentMetadata(serialized)
	require.NoError(t, err)
	assert.Equal(t, 1024, meta.Width)
	assert.Equal(t, 768, meta.Height)
	assert.Equal(t, "2013/01/big.png", meta.File)
	assert.Equal(t, []ImageSize{
		{Name: "medium", File: "big-300x225.png", Width: 300, Height: 225},
		{Name: "thumbnail", File: "big-150x150.png", Width: 150, Height: 150},
	}, meta.Sizes)
	assert.Equal(t, map[string]any{"aperture": 2.8, "camera": "Nikon"}, meta.ImageMeta)
}

func TestParseAttachmentMetadataNotArray(t *testing.T) {
	_, err := ParseAttachmentMetadata(`s:3:"abc";`)
	assert.ErrorIs(t, err, ErrPHPSerialized)
}

func TestItemAttachmentMetadata(t *testing.T) {
	channel, err := ReadWXRFile(exampleExport, false)
	require.NoError(t, err)

	meta, err := channel.Items[0].AttachmentMetadata()
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 800, meta.Width)
	assert.Equal(t, "2012/12/picture.jpg", meta.File)
	assert.Equal(t, []ImageSize{{Name: "thumbnail", File: "picture-150x150.jpg", Width: 150, Height: 150}}, meta.Sizes)
	// caption пустой, iso - строка "100".
	assert.Equal(t, map[string]any{"iso": 100.0}, meta.ImageMeta)

	meta, err = channel.Items[1].AttachmentMetadata()
	require.NoError(t, err)
	assert.Nil(t, meta)

	preset := &AttachmentMetadata{Width: 1}
	item := Item{Attachment: preset}
	meta, err = item.AttachmentMetadata()
	require.NoError(t, err)
	assert.Same(t, preset, meta)
}
