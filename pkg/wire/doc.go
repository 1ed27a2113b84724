// Package wire implements the two on-the-wire frame layouts of the Tuya
// LAN protocol: the "55AA" frame used by protocol generations 3.1-3.4 and
// the "6699" frame used by 3.5.
//
// This package only frames and unframes byte slices — it never touches
// AES. Encryption and decryption of the payload live one layer up, in
// pkg/tuyacipher and the session engine that composes them. Keeping the
// concerns separate mirrors the corresponding split in the surrounding
// examples between a framing package (length prefixes, checksums) and a
// message-encoding package (the actual payload codec).
package wire
