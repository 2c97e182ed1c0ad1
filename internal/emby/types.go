package emby

// Policy права аккаунта, которые витрина выставляет на медиасервере.
type Policy struct {
	Enabled     bool
	DeviceLimit int
	MaxBitrate  int
}

// DefaultMaxBitrate потолок битрейта, если тариф его не задал (1080p).
const DefaultMaxBitrate = 1080000000

type createUserRequest struct {
	Name string `json:"Name"`
}

type passwordRequest struct {
	ID            string `json:"Id"`
	NewPw         string `json:"NewPw"`
	ResetPassword bool   `json:"ResetPassword"`
}

type qualityOptions struct {
	MaxStreamingBitrate            int  `json:"MaxStreamingBitrate"`
	MaxStaticBitrate               int  `json:"MaxStaticBitrate"`
	MaxStaticRemoteQuality         int  `json:"MaxStaticRemoteQuality"`
	EnableAudioPlaybackTranscoding bool `json:"EnableAudioPlaybackTranscoding"`
	EnableVideoPlaybackTranscoding bool `json:"EnableVideoPlaybackTranscoding"`
	EnablePlaybackRemuxing         bool `json:"EnablePlaybackRemuxing"`
}

// policyRequest тело POST /Users/{id}/Policy.
type policyRequest struct {
	IsAdministrator                bool           `json:"IsAdministrator"`
	IsHidden                       bool           `json:"IsHidden"`
	IsDisabled                     bool           `json:"IsDisabled"`
	EnableUserPreferenceAccess     bool           `json:"EnableUserPreferenceAccess"`
	EnableRemoteAccess             bool           `json:"EnableRemoteAccess"`
	EnableMediaPlayback            bool           `json:"EnableMediaPlayback"`
	EnableAudioPlaybackTranscoding bool           `json:"EnableAudioPlaybackTranscoding"`
	EnableVideoPlaybackTranscoding bool           `json:"EnableVideoPlaybackTranscoding"`
	EnablePlaybackRemuxing         bool           `json:"EnablePlaybackRemuxing"`
	EnableContentDeletion          bool           `json:"EnableContentDeletion"`
	EnableContentDownloading       bool           `json:"EnableContentDownloading"`
	EnableSyncTranscoding          bool           `json:"EnableSyncTranscoding"`
	EnableSubtitleDownloading      bool           `json:"EnableSubtitleDownloading"`
	EnableSubtitleManagement       bool           `json:"EnableSubtitleManagement"`
	EnablePublicSharing            bool           `json:"EnablePublicSharing"`
	EnableAllDevices               bool           `json:"EnableAllDevices"`
	EnableAllChannels              bool           `json:"EnableAllChannels"`
	EnableAllFolders               bool           `json:"EnableAllFolders"`
	AuthenticationProviderID       string         `json:"AuthenticationProviderId"`
	SimultaneousStreamLimit        int            `json:"SimultaneousStreamLimit"`
	RemoteClientBitrateLimit       int            `json:"RemoteClientBitrateLimit"`
	MaxStreamingBitrate            int            `json:"MaxStreamingBitrate"`
	MaxStaticBitrate               int            `json:"MaxStaticBitrate"`
	MaxStaticRemoteQuality         int            `json:"MaxStaticRemoteQuality"`
	QualityOptions                 qualityOptions `json:"QualityOptions"`
}

// newPolicyRequest при Enabled=false снимает все права воспроизведения и обнуляет лимит устройств,
// независимо от прежних настроек.
func newPolicyRequest(p Policy) policyRequest {
	bitrate := p.MaxBitrate
	if bitrate <= 0 {
		bitrate = DefaultMaxBitrate
	}
	limit := 0
	if p.Enabled {
		limit = p.DeviceLimit
	}
	on := p.Enabled
	return policyRequest{
		IsDisabled:                     !on,
		EnableUserPreferenceAccess:     true,
		EnableRemoteAccess:             on,
		EnableMediaPlayback:            on,
		EnableAudioPlaybackTranscoding: on,
		EnableVideoPlaybackTranscoding: on,
		EnablePlaybackRemuxing:         on,
		EnableContentDownloading:       on,
		EnableSyncTranscoding:          on,
		EnableSubtitleDownloading:      on,
		EnableSubtitleManagement:       on,
		EnableAllDevices:               on,
		EnableAllChannels:              on,
		EnableAllFolders:               on,
		AuthenticationProviderID:       "Default",
		SimultaneousStreamLimit:        limit,
		RemoteClientBitrateLimit:       bitrate,
		MaxStreamingBitrate:            bitrate,
		MaxStaticBitrate:               bitrate,
		MaxStaticRemoteQuality:         bitrate,
		QualityOptions: qualityOptions{
			MaxStreamingBitrate:            bitrate,
			MaxStaticBitrate:               bitrate,
			MaxStaticRemoteQuality:         bitrate,
			EnableAudioPlaybackTranscoding: true,
			EnableVideoPlaybackTranscoding: true,
			EnablePlaybackRemuxing:         true,
		},
	}
}

type userResponse struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Policy *struct {
		IsDisabled bool `json:"IsDisabled"`
	} `json:"Policy"`
}
