package models

// Session is the login payload returned by the API together with the
// absolute token expiries computed on the client.
type Session struct {
	Token                 string `json:"token"`
	RefreshToken          string `json:"refreshToken"`
	AccessTokenExpiry     Millis `json:"accessTokenExpiry"`
	RefreshTokenExpiry    Millis `json:"refreshTokenExpiry"`
	AccessTokenExpiresAt  int64  `json:"accessTokenExpiresAt,omitempty"`
	RefreshTokenExpiresAt int64  `json:"refreshTokenExpiresAt,omitempty"`

	UserID            int64   `json:"userId"`
	RoleID            int64   `json:"roleId"`
	Role              string  `json:"role"`
	SubRoleID         int64   `json:"subRoleId"`
	SubRole           string  `json:"subRole"`
	UserTypeID        int64   `json:"userTypeId"`
	UserType          string  `json:"userType"`
	RangeID           int64   `json:"rangeId"`
	Range             string  `json:"range"`
	AreaIDs           []int64 `json:"areaIds"`
	TerritoryID       int64   `json:"territoryId"`
	TerritoryName     string  `json:"territoryName"`
	DistributorID     int64   `json:"distributorId"`
	DistributorName   string  `json:"distributorName"`
	UserAgencyID      int64   `json:"userAgencyId"`
	AgencyTerritoryID int64   `json:"agencyTerritoryId"`
	AgencyWarehouseID int64   `json:"agencyWarehouseId"`
	AgencyCode        int64   `json:"agencyCode"`
	AgencyName        string  `json:"agencyName"`
	UserName          string  `json:"userName"`
	PersonalName      string  `json:"personalName"`
	GPSStatus         bool    `json:"gpsStatus"`
	ServerTime        string  `json:"serverTime"`
}

// Tokens extracts the token bundle of the session.
func (s *Session) Tokens() Tokens {
	return Tokens{
		Token:                 s.Token,
		RefreshToken:          s.RefreshToken,
		AccessTokenExpiresAt:  s.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: s.RefreshTokenExpiresAt,
	}
}

// ApplyTokens merges a refreshed bundle into the session.
func (s *Session) ApplyTokens(t Tokens) {
	s.Token = t.Token
	s.RefreshToken = t.RefreshToken
	s.AccessTokenExpiresAt = t.AccessTokenExpiresAt
	s.RefreshTokenExpiresAt = t.RefreshTokenExpiresAt
}

// Envelope is the common API response wrapper.
type Envelope[T any] struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Payload *T     `json:"payload"`
}

// RefreshPayload is the payload of the refresh endpoint.
type RefreshPayload struct {
	Token              string `json:"token"`
	RefreshToken       string `json:"refreshToken"`
	AccessTokenExpiry  Millis `json:"accessTokenExpiry"`
	RefreshTokenExpiry Millis `json:"refreshTokenExpiry"`
}
