// Package hep holds the physics vocabulary shared by the compiler and the
// event engine: the closed set of particle types, the ordered quality tiers
// and the small amount of 4-momentum arithmetic the quantities need.
//
// Particle types map onto column prefixes in the event store:
//
//	hep.Electron.Prefix() // "Electron"
//	hep.BJet.Prefix()     // "Jet"
//
// Tiers are totally ordered, with NotClean below None so that a jet
// rejected by overlap cleaning never satisfies any tier floor:
//
//	hep.NotClean < hep.None < hep.Loose < hep.Medium < hep.Tight
package hep
