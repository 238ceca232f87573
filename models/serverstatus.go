package models

type (
	// ServerStatus is the JSON body of a status response.
	ServerStatus struct {
		Version     Version     `json:"version"`
		Players     Players     `json:"players"`
		Description Description `json:"description"`
		Favicon     string      `json:"favicon,omitempty"`
	}

	Version struct {
		Name     string `json:"name"`
		Protocol int    `json:"protocol"`
	}

	Players struct {
		Max    int      `json:"max"`
		Online int      `json:"online"`
		Sample []Sample `json:"sample,omitempty"`
	}

	Description struct {
		Text string `json:"text"`
	}

	Sample struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	}
)

// NewServerStatus builds a status answer without a player sample.
func NewServerStatus(name string, protocol, maxPlayers, online int, motd string) ServerStatus {
	return ServerStatus{
		Version:     Version{Name: name, Protocol: protocol},
		Players:     Players{Max: maxPlayers, Online: online},
		Description: Description{Text: motd},
	}
}
