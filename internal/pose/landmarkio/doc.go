// Package landmarkio reads recorded landmark-provider output and the video
// frames it was computed from, and writes annotated frames back out.
//
// Landmarks are stored as JSON Lines, one object per frame:
//
//	{"frame": 12, "landmarks": [[x, y, z, visibility], ...33 rows]}
//	{"frame": 13, "landmarks": null}
//
// A null or missing landmarks field means no person was detected.
package landmarkio
