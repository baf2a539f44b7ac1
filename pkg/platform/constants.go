package platform

import (
	"maps"
	"slices"
)

// Canonical framework identifiers.
const (
	NETFramework      = ".NETFramework"
	NETCore           = ".NETCore"
	NETPortable       = ".NETPortable"
	NETMicroFramework = ".NETMicroFramework"
	Silverlight       = "Silverlight"
	WindowsPhone      = "WindowsPhone"
	WindowsPhoneApp   = "WindowsPhoneApp"
	Windows           = "Windows"
	MonoAndroid       = "MonoAndroid"
	MonoTouch         = "MonoTouch"
	XamarinIOS        = "Xamarin.iOS"

	// PortableFolderPrefix marks a lib folder that targets a portable profile.
	PortableFolderPrefix = "portable-"
)

// compact short names, lower case.
var shortNames = map[string]string{
	"net":         NETFramework,
	"netcore":     NETCore,
	"winrt":       NETCore,
	"win":         Windows,
	"windows":     Windows,
	"sl":          Silverlight,
	"silverlight": Silverlight,
	"wp":          WindowsPhone,
	"wpa":         WindowsPhoneApp,
	"netmf":       NETMicroFramework,
	"monoandroid": MonoAndroid,
	"monotouch":   MonoTouch,
	"xamarinios":  XamarinIOS,
}

// preferred short name per identifier, used when rendering compact strings.
var preferredShortNames = map[string]string{
	NETFramework:      "net",
	NETCore:           "netcore",
	Windows:           "win",
	Silverlight:       "sl",
	WindowsPhone:      "wp",
	WindowsPhoneApp:   "wpa",
	NETMicroFramework: "netmf",
	MonoAndroid:       "monoandroid",
	MonoTouch:         "monotouch",
	XamarinIOS:        "xamarinios",
}

// ValidShortNames returns the accepted compact identifiers.
func ValidShortNames() []string {
	return slices.Sorted(maps.Keys(shortNames))
}
