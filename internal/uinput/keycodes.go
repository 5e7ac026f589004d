package uinput

// Key is a Linux input event key code (input-event-codes.h).
type Key uint16

// Key codes used by the built-in layers and accepted in configuration.
const (
	KeyEsc            Key = 1
	KeyDelete         Key = 111
	KeyMute           Key = 113
	KeyVolumeDown     Key = 114
	KeyVolumeUp       Key = 115
	KeyNextSong       Key = 163
	KeyPlayPause      Key = 164
	KeyPreviousSong   Key = 165
	KeyStopCD         Key = 166
	KeySearch         Key = 217
	KeyBrightnessDown Key = 224
	KeyBrightnessUp   Key = 225
	KeyIllumDown      Key = 229
	KeyIllumUp        Key = 230
	KeyMicMute        Key = 248
	KeyFn             Key = 464

	KeyF1  Key = 59
	KeyF2  Key = 60
	KeyF3  Key = 61
	KeyF4  Key = 62
	KeyF5  Key = 63
	KeyF6  Key = 64
	KeyF7  Key = 65
	KeyF8  Key = 66
	KeyF9  Key = 67
	KeyF10 Key = 68
	KeyF11 Key = 87
	KeyF12 Key = 88
)

// keyNames maps the action names accepted in config files to key codes.
var keyNames = map[string]Key{
	"Esc":            KeyEsc,
	"Delete":         KeyDelete,
	"F1":             KeyF1,
	"F2":             KeyF2,
	"F3":             KeyF3,
	"F4":             KeyF4,
	"F5":             KeyF5,
	"F6":             KeyF6,
	"F7":             KeyF7,
	"F8":             KeyF8,
	"F9":             KeyF9,
	"F10":            KeyF10,
	"F11":            KeyF11,
	"F12":            KeyF12,
	"BrightnessDown": KeyBrightnessDown,
	"BrightnessUp":   KeyBrightnessUp,
	"MicMute":        KeyMicMute,
	"Search":         KeySearch,
	"IllumDown":      KeyIllumDown,
	"IllumUp":        KeyIllumUp,
	"PreviousSong":   KeyPreviousSong,
	"PlayPause":      KeyPlayPause,
	"NextSong":       KeyNextSong,
	"StopCD":         KeyStopCD,
	"Mute":           KeyMute,
	"VolumeDown":     KeyVolumeDown,
	"VolumeUp":       KeyVolumeUp,
	"Fn":             KeyFn,
}

// LookupKey resolves a configured action name to its key code.
func LookupKey(name string) (Key, bool) {
	k, ok := keyNames[name]
	return k, ok
}

// AllKeys returns every key code the daemon knows how to emit. The virtual
// device declares all of them so a config reload can rebind buttons without
// recreating the device.
func AllKeys() []Key {
	keys := make([]Key, 0, len(keyNames))
	for _, k := range keyNames {
		keys = append(keys, k)
	}
	return keys
}
