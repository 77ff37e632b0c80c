package observerproto

// Version is the observer protocol version.
const Version = "1.0"

const (
	TypeSubscribe  = "SUBSCRIBE"
	TypeInput      = "INPUT"
	TypeSnapshot   = "SNAPSHOT"
	TypeChunk      = "CHUNK"
	TypeChunkEvict = "CHUNK_EVICT"
)

// Client -> Server. First message on the observer WS connection; can be
// re-sent to change settings.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// Meshes requests CHUNK messages with lattice geometry.
	Meshes bool `json:"meshes"`
}

// Client -> Server. Held key state; applies from the next tick until replaced.
type InputMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Forward         bool   `json:"forward"`
	Back            bool   `json:"back"`
	Left            bool   `json:"left"`
	Right           bool   `json:"right"`
	Boost           bool   `json:"boost"`
}

// HTTP response for GET /v1/observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
}

type WorldParams struct {
	TickRateHz   int     `json:"tick_rate_hz"`
	Seed         int64   `json:"seed"`
	Primitive    string  `json:"primitive"`
	ChunkSize    int     `json:"chunk_size"`
	Subdivisions int     `json:"subdivisions"`
	NearRadius   float64 `json:"near_radius"`
	FarRadius    float64 `json:"far_radius"`
}

// Server -> Client. Sent every tick; a slow client only sees the latest.
type SnapshotMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	Digest          string `json:"digest"`

	Rover     RoverState      `json:"rover"`
	Camera    CameraState     `json:"camera"`
	Specimens []SpecimenState `json:"specimens"`
	Score     ScoreState      `json:"score"`
	Chunks    [][2]int        `json:"chunks"`
}

type RoverState struct {
	Pos             [3]float64 `json:"pos"`
	Vel             [3]float64 `json:"vel"`
	Rotation        [4]float64 `json:"rotation"`
	SurfaceRotation [4]float64 `json:"surface_rotation"`
	Tilt            float64    `json:"tilt"`
	Turning         int        `json:"turning"`
	Boost           bool       `json:"boost"`
	BoostRemaining  float64    `json:"boost_remaining"`
	Grounded        bool       `json:"grounded"`
}

type CameraState struct {
	Pos   [3]float64 `json:"pos"`
	Focal [3]float64 `json:"focal"`
	Up    [3]float64 `json:"up"`
}

type SpecimenState struct {
	ID        uint64     `json:"id"`
	Kind      string     `json:"kind"`
	Pos       [3]float64 `json:"pos"`
	Rotation  [4]float64 `json:"rotation"`
	Size      float64    `json:"size"`
	Color     [4]float64 `json:"color"`
	Capturing bool       `json:"capturing,omitempty"`
}

type ScoreState struct {
	Value    int `json:"value"`
	Captures int `json:"captures"`
}

// Server -> Client. Full lattice for a newly resident chunk. Positions and
// normals are packed xyz triples.
type ChunkMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	CX              int             `json:"cx"`
	CZ              int             `json:"cz"`
	Center          [2]float64      `json:"center"`
	Bounds          [4]float64      `json:"bounds"`
	Resolution      int             `json:"resolution"`
	Positions       []float32       `json:"positions"`
	Normals         []float32       `json:"normals"`
	Indices         []uint32        `json:"indices"`
	Obstacles       []ObstacleState `json:"obstacles"`
}

type ObstacleState struct {
	Pos    [3]float64 `json:"pos"`
	Radius float64    `json:"radius"`
}

// Server -> Client. Drop a chunk from the client cache.
type ChunkEvictMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CX              int    `json:"cx"`
	CZ              int    `json:"cz"`
}
