// Package dedup finds and plans merges of duplicate subscribers.
//
// Two addresses are duplicates when [Canonicalizer.Canonicalize] maps them to the same key. [Plan]
// groups subscribers into [Cluster] values and picks a primary for each with [SelectPrimary]. The
// merge helpers compute the primary's new state; repositories.SubscriberRepository.MergeCluster
// applies it in one transaction.
package dedup
