package domain

// BootstrapData seeds the first administrator of an empty system.
type BootstrapData struct {
	AdminName     string
	AdminPassword string
}
