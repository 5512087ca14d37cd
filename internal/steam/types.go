package steam

import "strconv"

// PlayerSummary is one player object from the GetPlayerSummaries endpoint.
type PlayerSummary struct {
	SteamID                  string `json:"steamid"`
	CommunityVisibilityState int    `json:"communityvisibilitystate,omitempty"`
	ProfileState             int    `json:"profilestate,omitempty"`
	PersonaName              string `json:"personaname,omitempty"`
	ProfileURL               string `json:"profileurl,omitempty"`
	Avatar                   string `json:"avatar,omitempty"`
	AvatarMedium             string `json:"avatarmedium,omitempty"`
	AvatarFull               string `json:"avatarfull,omitempty"`
	AvatarHash               string `json:"avatarhash,omitempty"`
	LastLogoff               int64  `json:"lastlogoff,omitempty"`
	PersonaState             int    `json:"personastate,omitempty"`
	RealName                 string `json:"realname,omitempty"`
	PrimaryClanID            string `json:"primaryclanid,omitempty"`
	TimeCreated              int64  `json:"timecreated,omitempty"`
	GameID                   string `json:"gameid,omitempty"`
	GameExtraInfo            string `json:"gameextrainfo,omitempty"`
	LocCountryCode           string `json:"loccountrycode,omitempty"`
	LocStateCode             string `json:"locstatecode,omitempty"`
}

// Fields flattens the summary into a string field map for hash storage.
// Zero-valued fields are omitted.
func (p *PlayerSummary) Fields() map[string]string {
	fields := make(map[string]string)

	setStr := func(field, value string) {
		if value != "" {
			fields[field] = value
		}
	}
	setInt := func(field string, value int64) {
		if value != 0 {
			fields[field] = strconv.FormatInt(value, 10)
		}
	}

	setStr("steamid", p.SteamID)
	setInt("communityvisibilitystate", int64(p.CommunityVisibilityState))
	setInt("profilestate", int64(p.ProfileState))
	setStr("personaname", p.PersonaName)
	setStr("profileurl", p.ProfileURL)
	setStr("avatar", p.Avatar)
	setStr("avatarmedium", p.AvatarMedium)
	setStr("avatarfull", p.AvatarFull)
	setStr("avatarhash", p.AvatarHash)
	setInt("lastlogoff", p.LastLogoff)
	setInt("personastate", int64(p.PersonaState))
	setStr("realname", p.RealName)
	setStr("primaryclanid", p.PrimaryClanID)
	setInt("timecreated", p.TimeCreated)
	setStr("gameid", p.GameID)
	setStr("gameextrainfo", p.GameExtraInfo)
	setStr("loccountrycode", p.LocCountryCode)
	setStr("locstatecode", p.LocStateCode)

	return fields
}

// SummaryFromFields rebuilds a PlayerSummary from a stored field map.
// Malformed numeric fields are treated as absent.
func SummaryFromFields(fields map[string]string) *PlayerSummary {
	parseInt := func(field string) int64 {
		value, _ := strconv.ParseInt(fields[field], 10, 64)
		return value
	}

	return &PlayerSummary{
		SteamID:                  fields["steamid"],
		CommunityVisibilityState: int(parseInt("communityvisibilitystate")),
		ProfileState:             int(parseInt("profilestate")),
		PersonaName:              fields["personaname"],
		ProfileURL:               fields["profileurl"],
		Avatar:                   fields["avatar"],
		AvatarMedium:             fields["avatarmedium"],
		AvatarFull:               fields["avatarfull"],
		AvatarHash:               fields["avatarhash"],
		LastLogoff:               parseInt("lastlogoff"),
		PersonaState:             int(parseInt("personastate")),
		RealName:                 fields["realname"],
		PrimaryClanID:            fields["primaryclanid"],
		TimeCreated:              parseInt("timecreated"),
		GameID:                   fields["gameid"],
		GameExtraInfo:            fields["gameextrainfo"],
		LocCountryCode:           fields["loccountrycode"],
		LocStateCode:             fields["locstatecode"],
	}
}

// OwnedGame is one entry from the GetOwnedGames endpoint, optionally enriched
// with the catalog name when the upstream response omits it.
type OwnedGame struct {
	AppID                  int64  `json:"appid"`
	Name                   string `json:"name,omitempty"`
	PlaytimeForever        int64  `json:"playtime_forever"`
	ImgIconURL             string `json:"img_icon_url,omitempty"`
	PlaytimeWindowsForever int64  `json:"playtime_windows_forever,omitempty"`
	PlaytimeMacForever     int64  `json:"playtime_mac_forever,omitempty"`
	PlaytimeLinuxForever   int64  `json:"playtime_linux_forever,omitempty"`
	RtimeLastPlayed        int64  `json:"rtime_last_played,omitempty"`
}

// Genre is one genre tag from the storefront app details endpoint.
type Genre struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// ReleaseDate is the release date block from the storefront app details endpoint.
type ReleaseDate struct {
	ComingSoon bool   `json:"coming_soon"`
	Date       string `json:"date"`
}

// AppDetails is the storefront detail payload for a single app.
type AppDetails struct {
	Type             string       `json:"type,omitempty"`
	Name             string       `json:"name,omitempty"`
	SteamAppID       int64        `json:"steam_appid,omitempty"`
	IsFree           bool         `json:"is_free,omitempty"`
	ShortDescription string       `json:"short_description,omitempty"`
	HeaderImage      string       `json:"header_image,omitempty"`
	Website          string       `json:"website,omitempty"`
	Developers       []string     `json:"developers,omitempty"`
	Publishers       []string     `json:"publishers,omitempty"`
	Genres           []Genre      `json:"genres,omitempty"`
	ReleaseDate      *ReleaseDate `json:"release_date,omitempty"`
}

// Friend is one entry from the GetFriendList endpoint.
type Friend struct {
	SteamID      string `json:"steamid"`
	Relationship string `json:"relationship"`
	FriendSince  int64  `json:"friend_since"`
}

type playerSummariesResponse struct {
	Response struct {
		Players []*PlayerSummary `json:"players"`
	} `json:"response"`
}

type friendListResponse struct {
	FriendsList *struct {
		Friends []Friend `json:"friends"`
	} `json:"friendslist"`
}

type ownedGamesResponse struct {
	Response struct {
		GameCount int         `json:"game_count"`
		Games     []OwnedGame `json:"games"`
	} `json:"response"`
}

type appDetailsEntry struct {
	Success bool        `json:"success"`
	Data    *AppDetails `json:"data"`
}
