package s3

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/stretchr/testify/assert"
)

func TestObjectURL_AWSFormat(t *testing.T) {
	url := objectURL("", "eu-west-1", "warble-media", "media/u1/p1", false)
	assert.Equal(t, "https://warble-media.s3.eu-west-1.amazonaws.com/media/u1/p1", url)
}

func TestObjectURL_AWSFormat_DefaultRegion(t *testing.T) {
	url := objectURL("", "", "warble-media", "avatars/u1", false)
	assert.Equal(t, "https://warble-media.s3.us-east-1.amazonaws.com/avatars/u1", url)
}

func TestObjectURL_MinIOFormat(t *testing.T) {
	url := objectURL("http://localhost:9000", "us-east-1", "warble-media", "media/u1/p1", true)
	assert.Equal(t, "http://localhost:9000/warble-media/media/u1/p1", url)
}

func TestObjectURL_MinIOFormat_SSL(t *testing.T) {
	url := objectURL("https://minio.internal:9000", "us-east-1", "warble-media", "media/u1/p1", false)
	assert.Equal(t, "https://minio.internal:9000/warble-media/media/u1/p1", url)
}

func TestObjectURL_Deterministic(t *testing.T) {
	first := objectURL("", "us-east-1", "warble-media", "media/u1/p1", false)
	second := objectURL("", "us-east-1", "warble-media", "media/u1/p1", false)
	assert.Equal(t, first, second)
}

func TestIsNotFound_NoSuchKey(t *testing.T) {
	err := awserr.New("NoSuchKey", "the specified key does not exist", nil)
	assert.True(t, isNotFound(err))
}

func TestIsNotFound_NotFound(t *testing.T) {
	err := awserr.New("NotFound", "not found", nil)
	assert.True(t, isNotFound(err))
}

func TestIsNotFound_OtherAWSError(t *testing.T) {
	err := awserr.New("AccessDenied", "access denied", nil)
	assert.False(t, isNotFound(err))
}

func TestIsNotFound_PlainError(t *testing.T) {
	assert.False(t, isNotFound(errors.New("connection refused")))
}
