package zarr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorCodes(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := errors.Wrap(newError(ErrWriteFailure, ".zmetadata", cause), "consolidating")

	assert.True(t, IsCode(err, ErrWriteFailure))
	assert.False(t, IsCode(err, ErrDuplicateKey))
	assert.Equal(t, ErrWriteFailure, CodeOf(err))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, `consolidating: WriteFailure ".zmetadata": disk on fire`, err.Error())

	assert.Equal(t, ErrorCode(""), CodeOf(cause))
	assert.False(t, IsCode(nil, ErrWriteFailure))
}
