package netmock

//go:generate go tool mockgen -destination=packet_conn.go -package=netmock net PacketConn
