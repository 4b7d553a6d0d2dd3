package querysql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/liftsql/internal/queryir"
	"github.com/roach88/liftsql/internal/sqlast"
)

func TestCompileError_Error(t *testing.T) {
	cause := errors.New("no column Missing on Order")
	err := mappingError(cause)

	assert.Equal(t, "MAPPING: cannot resolve member: no column Missing on Order", err.Error())
	assert.ErrorIs(t, err, cause)

	plain := newError(ErrCodeInvalidUsage, "parameter %q is not registered", "p")
	assert.Equal(t, `INVALID_USAGE: parameter "p" is not registered`, plain.Error())
}

func TestUnsupported_RecordsKind(t *testing.T) {
	err := unsupported(queryir.KindCall, "len(self.Status)")

	assert.Equal(t, queryir.KindCall.String(), err.Kind)
	assert.Contains(t, err.Error(), "len(self.Status)")
	assert.True(t, IsUnsupported(err))
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		code  ErrorCode
		check func(error) bool
	}{
		{ErrCodeUnsupported, IsUnsupported},
		{ErrCodeInvalidUsage, IsInvalidUsage},
		{ErrCodeMapping, IsMappingError},
		{ErrCodeInvalidOperation, IsInvalidOperation},
		{ErrCodeInvalidExpression, IsInvalidExpression},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			wrapped := fmt.Errorf("query q: %w", newError(tt.code, "boom"))
			assert.True(t, tt.check(wrapped))
			assert.Equal(t, tt.code, Code(wrapped))

			for _, other := range tests {
				if other.code != tt.code {
					assert.False(t, other.check(wrapped), "%s matched %s", other.code, tt.code)
				}
			}
		})
	}

	assert.Equal(t, ErrorCode(""), Code(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), Code(nil))
}

func TestIsInvalidExpression_BareJoinError(t *testing.T) {
	err := fmt.Errorf("render: %w", &sqlast.JoinError{Table: "Customer", Alias: "c"})
	assert.True(t, IsInvalidExpression(err))
	assert.Equal(t, ErrorCode(""), Code(err))
}
