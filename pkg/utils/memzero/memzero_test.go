package memzero

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWipe(t *testing.T) {
	t.Run("清零普通缓冲区", func(t *testing.T) {
		buf := []byte{1, 2, 3, 4, 5}
		Wipe(buf)
		assert.Equal(t, []byte{0, 0, 0, 0, 0}, buf)
		assert.True(t, IsZero(buf))
	})

	t.Run("空缓冲区与nil不崩溃", func(t *testing.T) {
		assert.NotPanics(t, func() {
			Wipe(nil)
			Wipe([]byte{})
			Wipe32(nil)
		})
	})

	t.Run("批量清零", func(t *testing.T) {
		a := []byte{9, 9}
		b := []byte{7}
		WipeAll(a, b, nil)
		assert.True(t, IsZero(a))
		assert.True(t, IsZero(b))
	})

	t.Run("清零定长数组", func(t *testing.T) {
		var k [32]byte
		for i := range k {
			k[i] = byte(i + 1)
		}
		Wipe32(&k)
		assert.Equal(t, [32]byte{}, k)
	})

	t.Run("清零子切片只影响视图范围", func(t *testing.T) {
		buf := []byte{1, 2, 3, 4}
		Wipe(buf[1:3])
		assert.Equal(t, []byte{1, 0, 0, 4}, buf)
		assert.False(t, IsZero(buf))
	})
}
