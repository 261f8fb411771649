// Package rcon implements a client for the Source RCON protocol as spoken
// by Minecraft servers (https://wiki.vg/RCON). It contains three layers:
// the packet codec ([Packet], [Decoder]), the per-connection protocol state
// machine ([Session]), and the reconnecting façade ([Client]) that the rest
// of the bridge talks to.
package rcon
