package ui

// iconBytes is a 16x16 PNG used for the system tray icon.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x30, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0x60, 0x80, 0x82, 0x38,
	0xd3, 0x8d, 0x0d, 0xa4, 0x60, 0x06, 0x74, 0x50, 0xe3, 0xfb, 0xff, 0x3f,
	0x29, 0x98, 0x01, 0xd9, 0x66, 0x52, 0x35, 0xc3, 0x30, 0xd8, 0x25, 0xa3,
	0x06, 0x8c, 0x1a, 0x30, 0x4c, 0x0c, 0xa0, 0x38, 0x33, 0x51, 0x9a, 0x9d,
	0x01, 0xb2, 0x3a, 0x6a, 0x1f, 0x51, 0x20, 0x46, 0x87, 0x00, 0x00, 0x00,
	0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
