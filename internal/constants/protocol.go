package constants

import "time"

// Transport Protocol Constants
//
// Values fixed by the MapleStory-compatible client transport: rolling-IV header,
// plaintext hello, listener backlog.

// Packet Structure Constants
const (
	// PacketHeaderSize is the obfuscated header size (version word + length word, big-endian)
	PacketHeaderSize = 4

	// MinPacketLength is the smallest payload a header may announce
	MinPacketLength = 2

	// HelloLengthPrefixSize is the plaintext length prefix of the hello frame (uint16 LE)
	HelloLengthPrefixSize = 2

	// HelloFixedSize is the hello body size without the patch location string:
	// version(2) + string length(2) + clientIV(4) + serverIV(4) + locale(1)
	HelloFixedSize = 13
)

// Listener Constants
const (
	// AcceptBacklog is the pending connection queue length of the listening socket
	AcceptBacklog = 100
)

// Cipher Constants
const (
	// IVSize is the rolling IV size in bytes
	IVSize = 4

	// ShuffleTableSize is the shuffle table size in bytes
	ShuffleTableSize = 256

	// AESKeySize is the AES-256 key size in bytes
	AESKeySize = 32
)

// Buffer Pool Size Constants
const (
	// DefaultReceiveBufferSize is the socket read chunk size per session
	DefaultReceiveBufferSize = 1024

	// DefaultFrameBufSize is the default capacity of pooled outbound frames
	DefaultFrameBufSize = 512

	// MaxPooledFrameSize is the largest outbound frame capacity kept for reuse
	MaxPooledFrameSize = 8192

	// DefaultSendQueueSize is the per-session outbound frame queue capacity
	DefaultSendQueueSize = 256

	// DefaultWriteTimeout is the per-write socket deadline
	DefaultWriteTimeout = 5 * time.Second
)
