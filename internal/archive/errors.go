package archive

import "errors"

var (
	// ErrChecksum means a member failed its CRC check. With encrypted
	// members this still proves the password decrypted the data.
	ErrChecksum = errors.New("archive: checksum error")

	// ErrWrongVolume means testing started from a volume other than the first.
	ErrWrongVolume = errors.New("archive: need to start extraction from a previous volume")

	ErrBadPassword = errors.New("archive: incorrect password")

	// ErrNoDecrypt is returned by backends that cannot test encrypted members.
	ErrNoDecrypt = errors.New("archive: backend cannot decrypt")
)
