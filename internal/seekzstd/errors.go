package seekzstd

import (
	"errors"

	"github.com/standardbeagle/rx/internal/rxerrors"
)

func errSeekTableCorrupt(msg string) error {
	return rxerrors.New(rxerrors.SeekTableCorrupt, "decode_seek_table", errors.New(msg))
}
