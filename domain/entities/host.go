package entities

// HostClass categorizes the host client an app is running in.
type HostClass string

const (
	HostClassDesktop       HostClass = "desktop"
	HostClassWeb           HostClass = "web"
	HostClassAndroid       HostClass = "android"
	HostClassIOS           HostClass = "ios"
	HostClassIPadOS        HostClass = "ipados"
	HostClassMacOS         HostClass = "macos"
	HostClassRigel         HostClass = "rigel"
	HostClassSurfaceHub    HostClass = "surfaceHub"
	HostClassRoomsWindows  HostClass = "teamsRoomsWindows"
	HostClassRoomsAndroid  HostClass = "teamsRoomsAndroid"
	HostClassPhones        HostClass = "teamsPhones"
	HostClassDisplays      HostClass = "teamsDisplays"
	HostClassUnknownLegacy HostClass = ""
)

// IsMobile reports whether the host class is a phone or tablet client.
func (h HostClass) IsMobile() bool {
	switch h {
	case HostClassAndroid, HostClassIOS, HostClassIPadOS:
		return true
	default:
		return false
	}
}

// FrameContext is the page role the host loaded the app in.
type FrameContext string

const (
	FrameContextSettings       FrameContext = "settings"
	FrameContextContent        FrameContext = "content"
	FrameContextAuthentication FrameContext = "authentication"
	FrameContextRemove         FrameContext = "remove"
	FrameContextTask           FrameContext = "task"
	FrameContextSidePanel      FrameContext = "sidePanel"
	FrameContextStage          FrameContext = "stage"
	FrameContextMeetingStage   FrameContext = "meetingStage"
)
