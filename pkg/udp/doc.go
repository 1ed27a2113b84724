// Package udp implements the Tuya LAN discovery decoder: a passive
// listener on the three ports devices broadcast announcements to, plus
// a one-shot active solicitation that prompts newer devices to answer.
package udp
