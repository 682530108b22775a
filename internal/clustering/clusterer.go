package clustering

// Clusterer abstracts the clustering implementation so assignment code can
// be exercised against alternative strategies.
type Clusterer interface {
	// Cluster labels every point of m. Labels are numbered from 0; Noise
	// marks points outside every cluster.
	Cluster(m Dissimilarity) ([]int, error)

	// Params returns the current clustering parameters.
	Params() Params

	// SetParams updates the clustering parameters.
	SetParams(params Params)
}

// DBSCANClusterer implements Clusterer with DBSCAN over a precomputed
// dissimilarity matrix.
type DBSCANClusterer struct {
	params Params
}

// NewDBSCANClusterer creates a new DBSCAN clusterer with the specified parameters.
func NewDBSCANClusterer(eps float64, minPts int) *DBSCANClusterer {
	return &DBSCANClusterer{params: Params{Eps: eps, MinPts: minPts}}
}

// Cluster performs DBSCAN clustering on m.
func (c *DBSCANClusterer) Cluster(m Dissimilarity) ([]int, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}
	return DBSCAN(Neighborhoods(m, c.params.Eps), c.params.MinPts), nil
}

// Params returns the current clustering parameters.
func (c *DBSCANClusterer) Params() Params {
	return c.params
}

// SetParams updates the clustering parameters.
func (c *DBSCANClusterer) SetParams(params Params) {
	c.params = params
}

// Verify at compile time that *DBSCANClusterer implements Clusterer.
var _ Clusterer = (*DBSCANClusterer)(nil)
